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

// Package packstore implements the content-addressed pack store: every
// installed pack version lives at
// <packsDir>/<sanitized packId>/<sanitized manifestHash>/, installed via a
// staging-directory-then-rename so a reader never observes a partial
// install, and install is idempotent on disk: installing the same (packId,
// manifestHash) twice leaves the store directory untouched the second time,
// while the registry still records the second install.
package packstore

import (
	"fmt"
	"path/filepath"

	"github.com/benbjohnson/clock"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/registrystore"
)

// Paths holds the on-disk layout rooted under the engine's home directory.
// Passed explicitly rather than read from package-level globals, per
// SPEC_FULL.md §5's configuration note generalizing the teacher's
// single-global-destination assumption.
type Paths struct {
	PacksDir     string // <home>/packs
	RegistryFile string // <home>/registry.json
	CacheDir     string // <home>/cache
	BackupsDir   string // <home>/backups
}

// StorePath computes the content-addressed install directory for a given
// pack ID and manifest hash.
func (p Paths) StorePath(packID, manifestHash string) string {
	return filepath.Join(p.PacksDir, fsutil.Sanitize(packID), fsutil.Sanitize(manifestHash))
}

// InstallResult describes the outcome of an Install call.
type InstallResult struct {
	StorePath        string
	AlreadyInstalled bool
}

// Install copies srcRoot (a pack's root directory, containing its manifest
// file and template tree) into the content-addressed store, then records
// the install in the registry. If the (packID, manifestHash) pair is
// already installed, Install does not touch the filesystem again and
// returns AlreadyInstalled=true.
func Install(rfs fsutil.FS, clk clock.Clock, paths Paths, reg *registrystore.Registry, packID, version, manifestHash, srcRoot, source string) (*InstallResult, error) {
	dst := paths.StorePath(packID, manifestHash)

	exists, err := fsutil.ExistsFS(rfs, dst)
	if err != nil {
		return nil, fmt.Errorf("checking for existing install at %s: %w", dst, err)
	}
	if exists {
		registrystore.RegisterPackWithInstalls(reg, clk, packID, version, manifestHash, registrystore.InstallEntry{
			StorePath: dst,
			Source:    source,
		})
		return &InstallResult{StorePath: dst, AlreadyInstalled: true}, nil
	}

	if err := rfs.MkdirAll(paths.PacksDir, fsutil.OwnerRWXPerms); err != nil {
		return nil, fmt.Errorf("MkdirAll(%s): %w", paths.PacksDir, err)
	}

	staging, err := rfs.MkdirTemp(paths.PacksDir, ".scaffoldix-install-*")
	if err != nil {
		return nil, scaffolderr.Wrap(scaffolderr.CategoryStore, "STORE_INSTALL_FAILED", err)
	}

	if err := fsutil.CopyRecursive(&fsutil.CopyParams{
		FS:      rfs,
		SrcRoot: srcRoot,
		DstRoot: staging,
	}); err != nil {
		_ = rfs.RemoveAll(staging)
		return nil, scaffolderr.Wrap(scaffolderr.CategoryStore, "STORE_INSTALL_FAILED", err)
	}

	if err := rfs.MkdirAll(filepath.Dir(dst), fsutil.OwnerRWXPerms); err != nil {
		_ = rfs.RemoveAll(staging)
		return nil, scaffolderr.Wrap(scaffolderr.CategoryStore, "STORE_INSTALL_FAILED", err)
	}

	if err := rfs.Rename(staging, dst); err != nil {
		_ = rfs.RemoveAll(staging)
		return nil, scaffolderr.Wrap(scaffolderr.CategoryStore, "STORE_INSTALL_FAILED", err)
	}

	registrystore.RegisterPackWithInstalls(reg, clk, packID, version, manifestHash, registrystore.InstallEntry{
		StorePath: dst,
		Source:    source,
	})

	return &InstallResult{StorePath: dst, AlreadyInstalled: false}, nil
}

// Remove deletes one installed version from the store and unregisters it.
// Returns false if the version was not registered.
func Remove(rfs fsutil.FS, clk clock.Clock, paths Paths, reg *registrystore.Registry, packID, version, manifestHash string) (bool, error) {
	if !registrystore.UnregisterPackVersion(reg, clk, packID, version) {
		return false, nil
	}
	dst := paths.StorePath(packID, manifestHash)
	if err := rfs.RemoveAll(dst); err != nil {
		return true, fmt.Errorf("RemoveAll(%s): %w", dst, err)
	}
	return true, nil
}

// LoadRegistry and SaveRegistry are thin conveniences so callers don't need
// to import registrystore directly just to wire Paths.RegistryFile through.
func LoadRegistry(rfs fsutil.FS, paths Paths) (*registrystore.Registry, error) {
	return registrystore.Load(rfs, paths.RegistryFile) //nolint:wrapcheck
}

func SaveRegistry(rfs fsutil.FS, paths Paths, reg *registrystore.Registry) error {
	return registrystore.Save(rfs, paths.RegistryFile, reg) //nolint:wrapcheck
}
