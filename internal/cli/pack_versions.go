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

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/packstore"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/resolver"
)

// PackVersionsCommand implements "pack versions".
type PackVersionsCommand struct {
	cli.BaseCommand

	flags struct {
		PackID string
	}
}

func (c *PackVersionsCommand) Desc() string {
	return "list a pack's installed versions, newest first"
}

func (c *PackVersionsCommand) Help() string {
	return `
Usage: {{ COMMAND }} <packId>

Lists every version of <packId> installed locally, in descending semver
order (non-semver versions are listed alphabetically, after all semver
versions).`
}

func (c *PackVersionsCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()
	set.AfterParse(func(existingErr error) error {
		c.flags.PackID = strings.TrimSpace(set.Arg(0))
		if c.flags.PackID == "" {
			return fmt.Errorf("missing <packId>")
		}
		return nil
	})
	return set
}

func (c *PackVersionsCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths, err := defaultPaths()
	if err != nil {
		return err
	}
	reg, err := packstore.LoadRegistry(&fsutil.RealFS{}, paths)
	if err != nil {
		return err
	}

	for _, v := range resolver.ListVersions(reg, c.flags.PackID) {
		fmt.Fprintln(c.Stdout(), v)
	}
	return nil
}
