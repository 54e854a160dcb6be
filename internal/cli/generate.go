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

	"github.com/abcxyz/pkg/cli"
	"github.com/fatih/color"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/clockutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/orchestrator"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/version"
)

// GenerateCommand implements "generate".
type GenerateCommand struct {
	cli.BaseCommand

	// refArg is the positional "packId[:version]:archetypeId" argument,
	// captured by Flags' AfterParse hook.
	refArg string

	flags struct {
		Dest   string
		DryRun bool
		Force  bool
		Prompt bool
		Trace  bool
		Inputs map[string]string
	}
}

func (c *GenerateCommand) Desc() string {
	return "generate an archetype's files and patches into a target directory"
}

func (c *GenerateCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] <ref>

The {{ COMMAND }} command runs the full generation pipeline for an
archetype. <ref> is "packId[:version]:archetypeId", e.g.
"acme/service:1.2.0:grpc-service" or "acme/service:grpc-service" to take
the highest installed version.`
}

func (c *GenerateCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()
	f := set.NewSection("GENERATE OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "dest",
		Aliases: []string{"d"},
		Target:  &c.flags.Dest,
		Default: ".",
		Usage:   "The target directory to generate into.",
	})
	f.BoolVar(&cli.BoolVar{
		Name:    "dry-run",
		Target:  &c.flags.DryRun,
		Default: false,
		Usage:   "Plan and report what would happen without writing files, applying patches, or running hooks.",
	})
	f.BoolVar(&cli.BoolVar{
		Name:    "force",
		Target:  &c.flags.Force,
		Default: false,
		Usage:   "Overwrite existing files that would otherwise conflict.",
	})
	f.BoolVar(&cli.BoolVar{
		Name:    "prompt",
		Target:  &c.flags.Prompt,
		Default: false,
		Usage:   "Prompt for inputs that weren't provided with --input.",
	})
	f.BoolVar(&cli.BoolVar{
		Name:    "trace",
		Target:  &c.flags.Trace,
		Default: false,
		Usage:   "Print a phase-by-phase trace after the run.",
	})
	f.StringMapVar(&cli.StringMapVar{
		Name:   "input",
		Target: &c.flags.Inputs,
		Usage:  "The key=val pairs of archetype input values; may be repeated.",
	})

	set.AfterParse(func(existingErr error) error {
		ref := strings.TrimSpace(set.Arg(0))
		if ref == "" {
			return fmt.Errorf("missing <ref>")
		}
		c.refArg = ref
		return nil
	})
	return set
}

func (c *GenerateCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths, err := defaultPaths()
	if err != nil {
		return err
	}

	deps := orchestrator.Deps{
		FS:            &fsutil.RealFS{},
		Clock:         clockutil.New(),
		Paths:         paths,
		EngineVersion: version.EngineVersion(),
		Prompter:      c,
	}

	result, err := orchestrator.Generate(ctx, deps, orchestrator.Params{
		Ref:            c.refArg,
		TargetDir:      c.flags.Dest,
		DryRun:         c.flags.DryRun,
		Force:          c.flags.Force,
		NonInteractive: !c.flags.Prompt,
		Values:         c.flags.Inputs,
	})

	if c.flags.Trace && result != nil && result.Trace != nil {
		fmt.Fprint(c.Stdout(), result.Trace.Human())
	}
	if err != nil {
		if code, ok := scaffolderr.Code(err); ok {
			fmt.Fprintf(c.Stderr(), "%s %s: %s\n", color.New(color.FgRed).Sprint("error"), code, err.Error())
		}
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	if c.flags.DryRun {
		fmt.Fprintf(c.Stdout(), "%s dry run: %d file(s) planned\n", green("ok"), len(result.FilesPlanned))
		return nil
	}
	fmt.Fprintf(c.Stdout(), "%s wrote %d file(s)\n", green("ok"), len(result.FilesWritten))
	if result.BackupDir != "" {
		fmt.Fprintf(c.Stdout(), "%s backed up overwritten files to %s\n", green("ok"), result.BackupDir)
	}
	if result.PatchReport != nil {
		fmt.Fprintf(c.Stdout(), "%s applied %d patch(es), skipped %d\n",
			green("ok"), len(result.PatchReport.Applied()), len(result.PatchReport.Skipped()))
	}
	return nil
}
