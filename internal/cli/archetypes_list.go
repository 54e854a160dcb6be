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
	"text/tabwriter"

	"github.com/abcxyz/pkg/cli"
	"github.com/fatih/color"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/orchestrator"
)

// ArchetypesListCommand implements "archetypes list".
type ArchetypesListCommand struct {
	cli.BaseCommand
}

func (c *ArchetypesListCommand) Desc() string {
	return "list every archetype offered by every installed pack"
}

func (c *ArchetypesListCommand) Help() string {
	return `
Usage: {{ COMMAND }}

Lists packId, version, and archetypeId for every archetype in every
installed pack. A pack whose manifest fails to load is reported as a
warning rather than aborting the whole listing.`
}

func (c *ArchetypesListCommand) Flags() *cli.FlagSet {
	return c.NewFlagSet()
}

func (c *ArchetypesListCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths, err := defaultPaths()
	if err != nil {
		return err
	}

	result, err := orchestrator.ListArchetypes(&fsutil.RealFS{}, paths)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.Stdout(), 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PACK\tVERSION\tARCHETYPE\n")
	for _, a := range result.Archetypes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.PackID, a.Version, a.ArchetypeID)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	for key, loadErr := range result.Errors {
		fmt.Fprintf(c.Stderr(), "%s skipping %s: %s\n", yellow("warning"), key, loadErr.Error())
	}
	return nil
}
