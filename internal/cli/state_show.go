// Copyright 2024 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/abcxyz/pkg/cli"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/state"
)

// StateShowCommand implements "state show".
type StateShowCommand struct {
	cli.BaseCommand

	flags struct {
		TargetDir string
	}
}

func (c *StateShowCommand) Desc() string {
	return "show a target directory's generation history"
}

func (c *StateShowCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

Prints every recorded "generate" run for the target directory's
.scaffoldix/state.json, oldest first.`
}

func (c *StateShowCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()
	f := set.NewSection("STATE OPTIONS")
	f.StringVar(&cli.StringVar{
		Name:    "target",
		Aliases: []string{"t"},
		Target:  &c.flags.TargetDir,
		Default: ".",
		Usage:   "The generation target directory to inspect.",
	})
	return set
}

func (c *StateShowCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	ps, err := state.Load(&fsutil.RealFS{}, c.flags.TargetDir)
	if err != nil {
		return err
	}

	if len(ps.Generations) == 0 {
		fmt.Fprintln(c.Stdout(), "no generations recorded")
		return nil
	}

	tw := tabwriter.NewWriter(c.Stdout(), 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TIMESTAMP\tPACK\tVERSION\tARCHETYPE\tFILES\tPATCHES\tDRY RUN\n")
	for _, g := range ps.Generations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			g.Timestamp.Format("2006-01-02T15:04:05Z07:00"), g.PackID, g.PackVersion, g.ArchetypeID,
			len(g.FilesWritten), len(g.PatchesApplied), g.DryRun)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	last := state.Last(ps)
	if last != nil && len(last.Inputs) > 0 {
		keys := make([]string, 0, len(last.Inputs))
		for k := range last.Inputs {
			keys = append(keys, k)
		}
		fmt.Fprintf(c.Stdout(), "\nlast run's inputs: %s\n", strings.Join(keys, ", "))
	}
	return nil
}
