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

package gitfetch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// requireGit skips the test when no git binary is on PATH, since this
// package's whole job is to shell out to one.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

// runGit runs a git command in dir, failing the test on error.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// newSourceRepo creates a local git repo with one commit containing a
// manifest file, and returns its path (usable as a "remote" for Clone,
// since git clone accepts local paths).
func newSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "archetype.yaml"), []byte("pack:\n  name: acme\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	runGit(t, dir, "tag", "v1.0.0")
	return dir
}

func TestCloneDefaultBranch(t *testing.T) {
	t.Parallel()
	requireGit(t)

	src := newSourceRepo(t)
	outDir := filepath.Join(t.TempDir(), "checkout")

	fetched, err := Clone(context.Background(), src, "", outDir)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if diff := cmp.Diff(fetched.Dir, outDir); diff != "" {
		t.Error(diff)
	}
	if _, err := os.Stat(filepath.Join(outDir, "archetype.yaml")); err != nil {
		t.Errorf("expected the checkout to contain archetype.yaml: %v", err)
	}
}

func TestCloneSpecificTag(t *testing.T) {
	t.Parallel()
	requireGit(t)

	src := newSourceRepo(t)
	outDir := filepath.Join(t.TempDir(), "checkout")

	fetched, err := Clone(context.Background(), src, "v1.0.0", outDir)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if diff := cmp.Diff(fetched.Ref, "v1.0.0"); diff != "" {
		t.Error(diff)
	}
}

func TestCloneRejectsSymlinks(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "real.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("real.txt", filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "with symlink")

	outDir := filepath.Join(t.TempDir(), "checkout")
	_, err := Clone(context.Background(), dir, "", outDir)
	if err == nil {
		t.Fatal("expected Clone to reject a checkout containing a symlink")
	}
}

func TestCloneInvalidRemote(t *testing.T) {
	t.Parallel()
	requireGit(t)

	outDir := filepath.Join(t.TempDir(), "checkout")
	_, err := Clone(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), "", outDir)
	if err == nil {
		t.Fatal("expected an error cloning a nonexistent remote")
	}
}

func TestTags(t *testing.T) {
	t.Parallel()
	requireGit(t)

	src := newSourceRepo(t)
	runGit(t, src, "tag", "v1.1.0")

	tags, err := Tags(context.Background(), src)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	sort.Strings(tags)
	if diff := cmp.Diff(tags, []string{"v1.0.0", "v1.1.0"}); diff != "" {
		t.Errorf("Tags() (-got +want): %s", diff)
	}
}
