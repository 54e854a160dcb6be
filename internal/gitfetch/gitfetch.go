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

// Package gitfetch lets a pack reference ("pack install git+https://...")
// be resolved by shallow-cloning the named ref into a temp directory before
// it's handed to the pack store for a normal (local) install.
package gitfetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Fetched describes the result of cloning a pack's source repo.
type Fetched struct {
	// Dir is the temporary directory containing the checked-out pack root.
	// The caller is responsible for removing it once the pack store has
	// finished copying out of it.
	Dir string
	// Ref is the branch or tag that was checked out.
	Ref string
}

// Clone shallow-clones branchOrTag from remote into outDir, and rejects
// any symlinks found in the checkout:
// a git-sourced pack is untrusted until fetched, so this runs before the
// tree ever reaches the Pack Store's own install step (which, by contrast,
// recreates symlinks found in an already-trusted local source).
//
// "remote" may be any format accepted by git, such as
// https://github.com/org/pack.git or git@github.com:org/pack.git.
func Clone(ctx context.Context, remote, branchOrTag, outDir string) (*Fetched, error) {
	args := []string{"clone", "--depth", "1"}
	if branchOrTag != "" {
		args = append(args, "--branch", branchOrTag)
	}
	args = append(args, remote, outDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stderr = &bytes.Buffer{}
	cmd.Stdout = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git exec of %v failed: %w\nstdout: %s\nstderr: %s", cmd.Args, err, cmd.Stdout, cmd.Stderr)
	}

	if err := rejectSymlinks(remote, outDir); err != nil {
		return nil, err
	}

	return &Fetched{Dir: outDir, Ref: branchOrTag}, nil
}

func rejectSymlinks(remote, outDir string) error {
	return filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error { //nolint:wrapcheck
		if err != nil {
			return err
		}
		if path == filepath.Join(outDir, ".git") {
			return fs.SkipDir
		}
		fi, err := os.Lstat(path)
		if err != nil {
			return fmt.Errorf("Lstat(): %w", err)
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		relPath, err := filepath.Rel(outDir, path)
		if err != nil {
			return fmt.Errorf("Rel(): %w", err)
		}
		return fmt.Errorf("a symlink was found in %q at %q; pack sources containing symlinks are not supported", remote, relPath)
	})
}

// Tags lists the tags available in a remote repo, without cloning it.
// Useful for "pack versions" when the pack hasn't been installed yet.
func Tags(ctx context.Context, remote string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-remote", "--tags", remote)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git exec of %v failed: %w\nstdout: %s\nstderr: %s", cmd.Args, err, cmd.Stdout, cmd.Stderr)
	}

	scanner := bufio.NewScanner(stdout)
	var tags []string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		prefixedTag := fields[len(fields)-1]
		if strings.HasSuffix(prefixedTag, "^{}") {
			continue // skip the duplicate dereferenced-tag entries git prints
		}
		tags = append(tags, strings.TrimPrefix(prefixedTag, "refs/tags/"))
	}
	return tags, nil
}
