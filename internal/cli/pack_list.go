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
	"sort"
	"text/tabwriter"

	"github.com/abcxyz/pkg/cli"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/packstore"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/registrystore"
)

// PackListCommand implements "pack list".
type PackListCommand struct {
	cli.BaseCommand
}

func (c *PackListCommand) Desc() string {
	return "list every installed pack and its installed versions"
}

func (c *PackListCommand) Help() string {
	return `
Usage: {{ COMMAND }}

Lists every pack installed in the local pack store, one line per
(packId, version).`
}

func (c *PackListCommand) Flags() *cli.FlagSet {
	return c.NewFlagSet()
}

func (c *PackListCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths, err := defaultPaths()
	if err != nil {
		return err
	}
	loaded, err := packstore.LoadRegistry(&fsutil.RealFS{}, paths)
	if err != nil {
		return err
	}
	// Display from a clone: this command only reads, and must never be the
	// thing that causes a concurrent install to observe a half-iterated map.
	reg, err := registrystore.Clone(loaded)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.Stdout(), 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PACK\tVERSION\tMANIFEST HASH\tINSTALLED AT\n")
	for _, packID := range registrystore.ListPacks(reg) {
		pe := registrystore.GetPack(reg, packID)
		for _, version := range sortedVersions(pe) {
			ve := pe.Versions[version]
			installedAt := ve.InstalledAt
			if len(ve.Installs) > 0 {
				installedAt = ve.Installs[len(ve.Installs)-1].InstalledAt
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", packID, version, ve.ManifestHash, installedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	return tw.Flush() //nolint:wrapcheck
}

func sortedVersions(pe *registrystore.PackEntry) []string {
	out := make([]string, 0, len(pe.Versions))
	for v := range pe.Versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
