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

// Package fsutil abstracts filesystem access behind an interface (so tests
// can inject failures) and provides the atomic-write and filtered-copy
// primitives used throughout the pack store, renderer, and project state
// manager.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// OwnerRWXPerms is rwx------.
	OwnerRWXPerms = 0o700
	// OwnerRWPerms is rw-------.
	OwnerRWPerms = 0o600
)

// FS abstracts filesystem operations. We can't use os.DirFS or fs.StatFS
// alone because they lack the write-side methods we need.
type FS interface {
	fs.StatFS

	MkdirAll(string, os.FileMode) error
	MkdirTemp(string, string) (string, error)
	OpenFile(string, int, os.FileMode) (*os.File, error)
	ReadFile(string) ([]byte, error)
	Readlink(string) (string, error)
	Rename(string, string) error
	Remove(string) error
	RemoveAll(string) error
	Symlink(string, string) error
	WriteFile(string, []byte, os.FileMode) error
}

// RealFS is the production FS backed by the os package.
type RealFS struct{}

func (r *RealFS) MkdirAll(name string, perm os.FileMode) error { return os.MkdirAll(name, perm) } //nolint:wrapcheck
func (r *RealFS) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern) //nolint:wrapcheck
}
func (r *RealFS) Open(name string) (fs.File, error) { return os.Open(name) } //nolint:wrapcheck
func (r *RealFS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm) //nolint:wrapcheck
}
func (r *RealFS) ReadFile(name string) ([]byte, error)  { return os.ReadFile(name) }  //nolint:wrapcheck
func (r *RealFS) Readlink(name string) (string, error)  { return os.Readlink(name) }  //nolint:wrapcheck
func (r *RealFS) RemoveAll(name string) error           { return os.RemoveAll(name) } //nolint:wrapcheck
func (r *RealFS) Remove(name string) error              { return os.Remove(name) }    //nolint:wrapcheck
func (r *RealFS) Rename(from, to string) error          { return os.Rename(from, to) } //nolint:wrapcheck
func (r *RealFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }       //nolint:wrapcheck
func (r *RealFS) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) } //nolint:wrapcheck
func (r *RealFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:wrapcheck
}

// ErrorFS wraps an FS and can be configured to inject errors, for tests.
type ErrorFS struct {
	FS

	MkdirAllErr  error
	OpenErr      error
	OpenFileErr  error
	ReadFileErr  error
	RenameErr    error
	RemoveErr    error
	RemoveAllErr error
	StatErr      error
	WriteFileErr error
}

func (e *ErrorFS) MkdirAll(name string, mode fs.FileMode) error {
	if e.MkdirAllErr != nil {
		return e.MkdirAllErr
	}
	return e.FS.MkdirAll(name, mode) //nolint:wrapcheck
}

func (e *ErrorFS) Open(name string) (fs.File, error) {
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	return e.FS.Open(name) //nolint:wrapcheck
}

func (e *ErrorFS) OpenFile(name string, flag int, mode os.FileMode) (*os.File, error) {
	if e.OpenFileErr != nil {
		return nil, e.OpenFileErr
	}
	return e.FS.OpenFile(name, flag, mode) //nolint:wrapcheck
}

func (e *ErrorFS) ReadFile(name string) ([]byte, error) {
	if e.ReadFileErr != nil {
		return nil, e.ReadFileErr
	}
	return e.FS.ReadFile(name) //nolint:wrapcheck
}

func (e *ErrorFS) Rename(from, to string) error {
	if e.RenameErr != nil {
		return e.RenameErr
	}
	return e.FS.Rename(from, to) //nolint:wrapcheck
}

func (e *ErrorFS) Remove(name string) error {
	if e.RemoveErr != nil {
		return e.RemoveErr
	}
	return e.FS.Remove(name) //nolint:wrapcheck
}

func (e *ErrorFS) RemoveAll(name string) error {
	if e.RemoveAllErr != nil {
		return e.RemoveAllErr
	}
	return e.FS.RemoveAll(name) //nolint:wrapcheck
}

func (e *ErrorFS) Stat(name string) (fs.FileInfo, error) {
	if e.StatErr != nil {
		return nil, e.StatErr
	}
	return e.FS.Stat(name) //nolint:wrapcheck
}

func (e *ErrorFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if e.WriteFileErr != nil {
		return e.WriteFileErr
	}
	return e.FS.WriteFile(name, data, perm) //nolint:wrapcheck
}

// IsNotExistErr reports whether err indicates "the path doesn't exist."
func IsNotExistErr(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrInvalid)
}

// Exists reports whether path exists, using the production filesystem.
func Exists(path string) (bool, error) { return ExistsFS(&RealFS{}, path) }

// ExistsFS is Exists with an injectable FS.
func ExistsFS(rfs FS, path string) (bool, error) {
	_, err := rfs.Stat(path)
	if err != nil {
		if IsNotExistErr(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed checking existence of %q: %w", path, err)
	}
	return true, nil
}

// WriteAtomic writes data to path by first writing to a temp file in the
// same directory and renaming over the destination, so readers never
// observe a partially-written file. On Windows, a rename onto an existing
// file can transiently fail with EPERM while an antivirus or indexer holds
// the old file open; on EPERM the existing destination is removed and the
// rename retried, a few times, before giving up.
func WriteAtomic(rfs FS, path string, data []byte, perm os.FileMode) (outErr error) {
	dir := filepath.Dir(path)
	if err := rfs.MkdirAll(dir, OwnerRWXPerms); err != nil {
		return fmt.Errorf("MkdirAll(%s): %w", dir, err)
	}

	tmp, err := rfs.MkdirTemp(dir, ".scaffoldix-tmp-*")
	if err != nil {
		return fmt.Errorf("MkdirTemp(%s): %w", dir, err)
	}
	defer func() { outErr = errors.Join(outErr, rfs.RemoveAll(tmp)) }()

	tmpFile := filepath.Join(tmp, filepath.Base(path))
	if err := rfs.WriteFile(tmpFile, data, perm); err != nil {
		return fmt.Errorf("WriteFile(%s): %w", tmpFile, err)
	}

	return renameWithRetry(rfs, tmpFile, path)
}

func renameWithRetry(rfs FS, from, to string) error {
	var lastErr error
	attempts := 1
	if runtime.GOOS == "windows" {
		attempts = 5
	}
	for i := 0; i < attempts; i++ {
		if err := rfs.Rename(from, to); err != nil {
			lastErr = err
			if runtime.GOOS == "windows" && errors.Is(err, os.ErrPermission) {
				// Remove the existing destination so the next rename can
				// take its place.
				_ = rfs.Remove(to)
				time.Sleep(20 * time.Millisecond)
				continue
			}
			return fmt.Errorf("Rename(%s, %s): %w", from, to, err)
		}
		return nil
	}
	return fmt.Errorf("Rename(%s, %s): gave up after %d attempts: %w", from, to, attempts, lastErr)
}

// windowsReservedChars are characters that can't appear in a Windows path
// segment; Sanitize replaces them so a pack ID containing them (or a "/"
// namespace separator) can still become a directory name.
var windowsReservedChars = []string{"<", ">", ":", "\"", "|", "?", "*"}

// Sanitize converts a pack ID into a safe, collision-resistant directory
// name: "/" namespace separators become "__", and characters forbidden in
// Windows path segments become "_".
func Sanitize(id string) string {
	out := strings.ReplaceAll(id, "/", "__")
	for _, c := range windowsReservedChars {
		out = strings.ReplaceAll(out, c, "_")
	}
	return out
}

// DefaultSkipNames lists entries CopyRecursive always skips when walking a
// template tree, regardless of archetype content.
var DefaultSkipNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".DS_Store":    true,
	"Thumbs.db":    true,
	".Trashes":     true,
	"desktop.ini":  true,
}

// SymlinkForbiddenError is returned by a render destination's own symlink
// check (internal/render) when a symlink is found in generated output;
// CopyRecursive itself recreates symlinks rather than forbidding them.
type SymlinkForbiddenError struct {
	Path string
}

func (e *SymlinkForbiddenError) Error() string {
	return fmt.Sprintf("a symlink was found at %q, but symlinks are forbidden in a pack's template tree", e.Path)
}

// CopyVisitor lets the caller influence the per-entry behavior of
// CopyRecursive.
type CopyVisitor func(relPath string, de fs.DirEntry) (CopyHint, error)

// CopyHint is the visitor's decision for one directory entry.
type CopyHint struct {
	// BackupIfExists copies the preexisting destination file into BackupDir
	// before it is overwritten. Files only; directories are unaffected.
	BackupIfExists bool
	// AllowPreexisting suppresses the default "refuse to overwrite" error.
	AllowPreexisting bool
	// Skip excludes this entry (and, for directories, everything beneath
	// it) from the copy.
	Skip bool
}

// CopyParams bundles CopyRecursive's parameters.
type CopyParams struct {
	FS      FS
	SrcRoot string
	DstRoot string
	DryRun  bool
	Visitor CopyVisitor

	// BackupDir receives a copy of any destination file before it is
	// overwritten via a CopyHint.BackupIfExists. Created lazily, on first
	// use, by BackupDirMaker.
	BackupDir      string
	BackupDirMaker func(FS) (string, error)
}

// CopyRecursive walks p.SrcRoot and copies it into p.DstRoot, honoring
// p.Visitor's per-entry decisions. Symlinks in the source are recreated
// (not followed) at the destination; device, named-pipe, and socket
// entries aren't portable pack content and are skipped.
func CopyRecursive(p *CopyParams) (outErr error) {
	return fs.WalkDir(p.FS, p.SrcRoot, func(path string, de fs.DirEntry, err error) error { //nolint:wrapcheck
		if err != nil {
			return err
		}

		relToSrc, err := filepath.Rel(p.SrcRoot, path)
		if err != nil {
			return fmt.Errorf("filepath.Rel(%s,%s): %w", p.SrcRoot, path, err)
		}

		if relToSrc != "." && DefaultSkipNames[de.Name()] {
			if de.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if de.Type()&(fs.ModeDevice|fs.ModeNamedPipe|fs.ModeSocket) != 0 {
			return nil
		}

		var ch CopyHint
		if p.Visitor != nil {
			if ch, err = p.Visitor(relToSrc, de); err != nil {
				return err
			}
		}
		if ch.Skip {
			if de.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if de.IsDir() {
			return nil
		}

		dst := filepath.Join(p.DstRoot, relToSrc)
		inDir := filepath.Dir(dst)
		if err := mkdirAllChecked(p.FS, inDir, p.DryRun); err != nil {
			return err
		}

		if de.Type()&fs.ModeSymlink != 0 {
			return copySymlink(p.FS, path, dst, p.DryRun)
		}

		dstInfo, err := p.FS.Stat(dst)
		if err == nil {
			if dstInfo.IsDir() {
				return fmt.Errorf("cannot overwrite directory %q with a file of the same name", dst)
			}
			if !ch.AllowPreexisting {
				return fmt.Errorf("destination file %s already exists and overwriting was not requested", relToSrc)
			}
			if ch.BackupIfExists && !p.DryRun {
				if p.BackupDir == "" {
					if p.BackupDir, err = p.BackupDirMaker(p.FS); err != nil {
						return fmt.Errorf("failed making backup directory: %w", err)
					}
				}
				if err := backUp(p.FS, p.BackupDir, p.DstRoot, relToSrc); err != nil {
					return err
				}
			}
		} else if !IsNotExistErr(err) {
			return fmt.Errorf("Stat(%s): %w", dst, err)
		}

		return CopyFile(p.FS, path, dst, p.DryRun)
	})
}

// copySymlink recreates the symlink found at src at dst, preserving its
// target rather than following and copying the linked file.
func copySymlink(rfs FS, src, dst string, dryRun bool) error {
	target, err := rfs.Readlink(src)
	if err != nil {
		return fmt.Errorf("Readlink(%s): %w", src, err)
	}
	if dryRun {
		return nil
	}
	if err := rfs.RemoveAll(dst); err != nil && !IsNotExistErr(err) {
		return fmt.Errorf("RemoveAll(%s): %w", dst, err)
	}
	if err := rfs.Symlink(target, dst); err != nil {
		return fmt.Errorf("Symlink(%s, %s): %w", target, dst, err)
	}
	return nil
}

// CopyFile copies src to dst, preserving src's file mode.
func CopyFile(rfs FS, src, dst string, dryRun bool) (outErr error) {
	srcInfo, err := rfs.Stat(src)
	if err != nil {
		return fmt.Errorf("Stat(%s): %w", src, err)
	}
	mode := srcInfo.Mode().Perm()

	readFile, err := rfs.Open(src)
	if err != nil {
		return fmt.Errorf("Open(%s): %w", src, err)
	}
	defer func() { outErr = errors.Join(outErr, readFile.Close()) }()

	if dryRun {
		_, err := io.Copy(io.Discard, readFile)
		return err //nolint:wrapcheck
	}

	if err := rfs.MkdirAll(filepath.Dir(dst), OwnerRWXPerms); err != nil {
		return fmt.Errorf("MkdirAll(%s): %w", filepath.Dir(dst), err)
	}
	writeFile, err := rfs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("OpenFile(%s): %w", dst, err)
	}
	defer func() { outErr = errors.Join(outErr, writeFile.Close()) }()

	if _, err := io.Copy(writeFile, readFile); err != nil {
		return fmt.Errorf("Copy(%s -> %s): %w", src, dst, err)
	}
	return nil
}

func backUp(rfs FS, backupDir, srcRoot, relPath string) error {
	backupFile := filepath.Join(backupDir, relPath)
	fileToBackup := filepath.Join(srcRoot, relPath)
	if err := CopyFile(rfs, fileToBackup, backupFile, false); err != nil {
		return fmt.Errorf("failed backing up %q at %q before overwriting: %w", fileToBackup, backupFile, err)
	}
	return nil
}

func mkdirAllChecked(rfs FS, path string, dryRun bool) error {
	info, err := rfs.Stat(path)
	if err != nil {
		if !IsNotExistErr(err) {
			return fmt.Errorf("Stat(%s): %w", path, err)
		}
		if dryRun {
			return nil
		}
		if err := rfs.MkdirAll(path, OwnerRWXPerms); err != nil {
			return fmt.Errorf("MkdirAll(%s): %w", path, err)
		}
		return nil
	}
	if !info.Mode().IsDir() {
		return fmt.Errorf("cannot overwrite file %q with a directory of the same name", path)
	}
	return nil
}
