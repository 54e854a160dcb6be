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
	"os"
	"path/filepath"
	"strings"

	"github.com/abcxyz/pkg/cli"
	"github.com/fatih/color"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/clockutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/gitfetch"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/manifestload"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/packstore"
)

// PackInstallCommand implements "pack install".
type PackInstallCommand struct {
	cli.BaseCommand

	flags struct {
		Source string // local dir, or a git remote URL
		Ref    string // git tag/branch, ignored for local sources
	}
}

func (c *PackInstallCommand) Desc() string {
	return "install a pack into the local content-addressed pack store"
}

func (c *PackInstallCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] <source>

The {{ COMMAND }} command installs a pack so its archetypes can later be
generated from by ID. <source> is either a local directory containing a
pack manifest, or a git remote URL (see --ref).`
}

func (c *PackInstallCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()
	f := set.NewSection("INSTALL OPTIONS")
	f.StringVar(&cli.StringVar{
		Name:   "ref",
		Target: &c.flags.Ref,
		Usage:  "The git tag or branch to install, when <source> is a git remote.",
	})
	set.AfterParse(func(existingErr error) error {
		c.flags.Source = strings.TrimSpace(set.Arg(0))
		if c.flags.Source == "" {
			return fmt.Errorf("missing <source>")
		}
		return nil
	})
	return set
}

func (c *PackInstallCommand) Run(ctx context.Context, args []string) error {
	if err := c.Flags().Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths, err := defaultPaths()
	if err != nil {
		return err
	}
	rfs := &fsutil.RealFS{}

	srcRoot := c.flags.Source
	if looksLikeGitRemote(srcRoot) {
		tmp, err := os.MkdirTemp("", "scaffoldix-pack-clone-")
		if err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		fetched, err := gitfetch.Clone(ctx, srcRoot, c.flags.Ref, tmp)
		if err != nil {
			return fmt.Errorf("failed to clone %s: %w", srcRoot, err)
		}
		srcRoot = fetched.Dir
	}

	loaded, err := manifestload.Load(rfs, srcRoot)
	if err != nil {
		return err
	}

	reg, err := packstore.LoadRegistry(rfs, paths)
	if err != nil {
		return err
	}

	source := c.flags.Source
	result, err := packstore.Install(rfs, clockutil.New(), paths, reg, loaded.Manifest.Pack.Name.Val,
		loaded.Manifest.Pack.Version.Val, loaded.ManifestHash, srcRoot, source)
	if err != nil {
		return err
	}

	if err := packstore.SaveRegistry(rfs, paths, reg); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	if result.AlreadyInstalled {
		fmt.Fprintf(c.Stdout(), "%s %s@%s is already installed at %s\n",
			green("ok"), loaded.Manifest.Pack.Name.Val, loaded.Manifest.Pack.Version.Val, result.StorePath)
		return nil
	}
	fmt.Fprintf(c.Stdout(), "%s installed %s@%s to %s\n",
		green("ok"), loaded.Manifest.Pack.Name.Val, loaded.Manifest.Pack.Version.Val, result.StorePath)
	return nil
}

func looksLikeGitRemote(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "git@") ||
		strings.Contains(filepath.Base(src), ".git")
}
