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

// Package cache implements the pack index cache: a small derived summary of
// a manifest (its archetype IDs and each archetype's input names) keyed by
// (packID, manifestHash), so that commands like "archetypes list" can avoid
// re-parsing every installed pack's manifest on every invocation.
//
// The cache is last-writer-wins (a Set always replaces whatever was there)
// and treats a stale key (one whose recorded ManifestHash doesn't match the
// caller's current manifest hash) the same as a miss, never as a hit that
// needs invalidating by the caller.
package cache

import (
	"encoding/json"
	"path/filepath"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
)

// ArchetypeSummary is the cached shape of one archetype, enough to answer
// "what archetypes does this pack have, and what inputs does each take"
// without loading the full manifest.
type ArchetypeSummary struct {
	ID         string   `json:"id"`
	InputNames []string `json:"inputNames"`
}

// Entry is one cached pack index.
type Entry struct {
	PackID       string             `json:"packId"`
	ManifestHash string             `json:"manifestHash"`
	PackVersion  string             `json:"packVersion"`
	Archetypes   []ArchetypeSummary `json:"archetypes"`
}

// Cache is a directory of JSON files, one per (packID, manifestHash).
type Cache struct {
	FS  fsutil.FS
	Dir string
}

func New(rfs fsutil.FS, dir string) *Cache {
	return &Cache{FS: rfs, Dir: dir}
}

func (c *Cache) path(packID, manifestHash string) string {
	return filepath.Join(c.Dir, fsutil.Sanitize(packID), fsutil.Sanitize(manifestHash)+".json")
}

// Get returns the cached Entry for (packID, manifestHash). A missing file,
// or an entry whose ManifestHash doesn't match the requested one (a stale
// hash left over from before the cache file was overwritten out from under
// us), is reported as a miss (ok=false), never an error.
func (c *Cache) Get(packID, manifestHash string) (entry *Entry, ok bool, err error) {
	p := c.path(packID, manifestHash)
	exists, err := fsutil.ExistsFS(c.FS, p)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	raw, err := c.FS.ReadFile(p)
	if err != nil {
		return nil, false, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt cache file is a miss, not a fatal error: the cache is
		// purely a derived, rebuildable artifact.
		return nil, false, nil
	}
	if e.ManifestHash != manifestHash {
		return nil, false, nil
	}
	return &e, true, nil
}

// Set writes entry to the cache, replacing whatever was there for this
// (PackID, ManifestHash) — last writer always wins, there is no merge.
func (c *Cache) Set(entry *Entry) error {
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err //nolint:wrapcheck
	}
	return fsutil.WriteAtomic(c.FS, c.path(entry.PackID, entry.ManifestHash), raw, fsutil.OwnerRWPerms) //nolint:wrapcheck
}

// Invalidate removes every cached entry for packID, regardless of
// manifestHash.
func (c *Cache) Invalidate(packID string) error {
	dir := filepath.Join(c.Dir, fsutil.Sanitize(packID))
	exists, err := fsutil.ExistsFS(c.FS, dir)
	if err != nil || !exists {
		return err
	}
	return c.FS.RemoveAll(dir) //nolint:wrapcheck
}
