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

// Package manifestload locates and parses a pack's manifest file
// (archetype.yaml or pack.yaml) from a directory, and computes its
// canonical content hash.
package manifestload

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/canonhash"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// Loaded is the result of loading a manifest: the parsed document plus the
// canonical hash of its source bytes, which the pack store uses to address
// that version's install directory.
type Loaded struct {
	Manifest     *manifest.PackManifest
	ManifestHash string
}

// Locate finds the manifest file under packRootDir, trying
// manifest.RecognizedFilenames in order, and returns its path. It is an
// error for none, or more than one, to exist.
func Locate(rfs fsutil.FS, packRootDir string) (string, error) {
	var found []string
	for _, name := range manifest.RecognizedFilenames {
		p := filepath.Join(packRootDir, name)
		ok, err := fsutil.ExistsFS(rfs, p)
		if err != nil {
			return "", fmt.Errorf("checking for manifest file %s: %w", p, err)
		}
		if ok {
			found = append(found, p)
		}
	}

	switch len(found) {
	case 0:
		return "", scaffolderr.New(scaffolderr.CategoryManifest, "MANIFEST_NOT_FOUND",
			fmt.Sprintf("no manifest file found in %s; expected one of %v", packRootDir, manifest.RecognizedFilenames)).
			AsOperational()
	case 1:
		return found[0], nil
	default:
		return "", scaffolderr.New(scaffolderr.CategoryManifest, "MANIFEST_AMBIGUOUS",
			fmt.Sprintf("more than one manifest file found in %s: %v", packRootDir, found)).
			WithHint("a pack must contain exactly one of archetype.yaml or pack.yaml").
			AsOperational()
	}
}

// Load locates, reads, parses, validates, and hashes the manifest under
// packRootDir.
func Load(rfs fsutil.FS, packRootDir string) (*Loaded, error) {
	manifestPath, err := Locate(rfs, packRootDir)
	if err != nil {
		return nil, err
	}

	raw, err := rfs.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("ReadFile(%s): %w", manifestPath, err)
	}

	hash, err := canonhash.Manifest(raw)
	if err != nil {
		return nil, scaffolderr.Wrap(scaffolderr.CategoryManifest, canonhash.ErrCode, err).AsOperational()
	}

	pm := &manifest.PackManifest{}
	if err := model.DecodeAndValidate(bytes.NewReader(raw), manifestPath, pm); err != nil {
		return nil, scaffolderr.New(scaffolderr.CategoryManifest, "MANIFEST_SCHEMA_ERROR", err.Error()).AsOperational()
	}
	pm.ManifestPath = manifestPath
	pm.PackRootDir = packRootDir

	return &Loaded{Manifest: pm, ManifestHash: hash}, nil
}

// FindArchetype returns the archetype with the given ID, or an error
// naming the archetypes that do exist.
func FindArchetype(pm *manifest.PackManifest, archetypeID string) (*manifest.Archetype, error) {
	for _, a := range pm.Archetypes {
		if a.ID.Val == archetypeID {
			return a, nil
		}
	}

	ids := make([]string, len(pm.Archetypes))
	for i, a := range pm.Archetypes {
		ids[i] = a.ID.Val
	}
	return nil, scaffolderr.New(scaffolderr.CategoryManifest, "ARCHETYPE_NOT_FOUND",
		fmt.Sprintf("archetype %q not found in pack %s; available archetypes: %v", archetypeID, pm.Pack.Name.Val, ids)).
		AsOperational()
}
