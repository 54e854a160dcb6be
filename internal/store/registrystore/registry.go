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

// Package registrystore persists the pack registry: a JSON document
// recording every pack ID/version the engine has ever installed, the
// content-addressed store path of each install, and an append-only history
// of registry-mutating events.
//
// schemaVersion is 2 (see SPEC_FULL.md §8.3): every VersionEntry's Installs
// slice is always materialized with at least one element in memory, even
// when loading an older or hand-edited registry.json that omits it —
// synthesized from the version's top-level InstalledAt/StorePath fields on
// read so callers never need to nil-check.
package registrystore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jinzhu/copier"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// SchemaVersion is the current on-disk schema version this package writes.
const SchemaVersion = 2

// Registry is the root JSON document, keyed by pack ID.
type Registry struct {
	SchemaVersion int                   `json:"schemaVersion"`
	Packs         map[string]*PackEntry `json:"packs"`
}

// PackEntry tracks every known version of one pack, plus that pack's
// history of registry events.
type PackEntry struct {
	PackID   string                   `json:"packId"`
	Versions map[string]*VersionEntry `json:"versions"`
	History  []HistoryEvent           `json:"history,omitempty"`
}

// VersionEntry is one installed version of a pack.
type VersionEntry struct {
	ManifestHash string         `json:"manifestHash"`
	InstalledAt  time.Time      `json:"installedAt"`
	StorePath    string         `json:"storePath,omitempty"` // legacy (schemaVersion 1) single-install field
	Installs     []InstallEntry `json:"installs,omitempty"`
}

// InstallEntry is one physical copy of a pack version in the content store.
// A version can have more than one install record if it was installed from
// more than one source (e.g. re-fetched from git after a local install).
type InstallEntry struct {
	StorePath   string    `json:"storePath"`
	InstalledAt time.Time `json:"installedAt"`
	Source      string    `json:"source,omitempty"`
}

// HistoryEvent is one append-only record of a registry mutation.
type HistoryEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"` // "install", "reinstall", "remove"
	Version      string    `json:"version"`
	ManifestHash string    `json:"manifestHash,omitempty"`
}

const (
	ActionInstall   = "install"
	ActionReinstall = "reinstall"
	ActionRemove    = "remove"
)

// Load reads and parses the registry file at path. A missing file is not an
// error: it returns a fresh, empty Registry, since "no registry yet" is the
// normal state before the first pack install.
func Load(rfs fsutil.FS, path string) (*Registry, error) {
	exists, err := fsutil.ExistsFS(rfs, path)
	if err != nil {
		return nil, fmt.Errorf("checking for registry file: %w", err)
	}
	if !exists {
		return &Registry{SchemaVersion: SchemaVersion, Packs: map[string]*PackEntry{}}, nil
	}

	raw, err := rfs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile(%s): %w", path, err)
	}

	var reg Registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, scaffolderr.New(scaffolderr.CategoryStore, "REGISTRY_CORRUPT",
			fmt.Sprintf("registry file %s is not valid JSON: %s", path, err)).AsOperational()
	}
	if reg.Packs == nil {
		reg.Packs = map[string]*PackEntry{}
	}
	normalize(&reg)
	return &reg, nil
}

// normalize upgrades in-memory state loaded from an older or hand-edited
// registry to always satisfy schemaVersion 2's invariant: every
// VersionEntry.Installs has at least one element.
func normalize(reg *Registry) {
	reg.SchemaVersion = SchemaVersion
	for _, pe := range reg.Packs {
		for _, ve := range pe.Versions {
			if len(ve.Installs) == 0 {
				storePath := ve.StorePath
				installedAt := ve.InstalledAt
				ve.Installs = []InstallEntry{{StorePath: storePath, InstalledAt: installedAt}}
			}
		}
	}
}

// Save writes reg to path atomically (temp file + rename).
func Save(rfs fsutil.FS, path string, reg *Registry) error {
	reg.SchemaVersion = SchemaVersion
	buf, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	buf = append(buf, '\n')
	if err := fsutil.WriteAtomic(rfs, path, buf, fsutil.OwnerRWPerms); err != nil {
		return fmt.Errorf("writing registry file %s: %w", path, err)
	}
	return nil
}

// RegisterPackWithInstalls records a new install of packID@version,
// appending to any existing Installs for that version rather than replacing
// them, and appends a History event. clk supplies the current time so tests
// can control it.
func RegisterPackWithInstalls(reg *Registry, clk clock.Clock, packID, version, manifestHash string, install InstallEntry) {
	pe, ok := reg.Packs[packID]
	if !ok {
		pe = &PackEntry{PackID: packID, Versions: map[string]*VersionEntry{}}
		reg.Packs[packID] = pe
	}

	now := clk.Now().UTC()
	if install.InstalledAt.IsZero() {
		install.InstalledAt = now
	}

	action := ActionInstall
	ve, exists := pe.Versions[version]
	if !exists {
		ve = &VersionEntry{ManifestHash: manifestHash, InstalledAt: install.InstalledAt}
		pe.Versions[version] = ve
	} else {
		action = ActionReinstall
	}
	ve.Installs = append(ve.Installs, install)
	ve.StorePath = install.StorePath // keep legacy field in sync for anyone still reading it

	pe.History = append(pe.History, HistoryEvent{
		Timestamp:    now,
		Action:       action,
		Version:      version,
		ManifestHash: manifestHash,
	})
}

// UnregisterPackVersion removes one version of a pack from the registry and
// appends a "remove" history event. Returns false if the version wasn't
// registered.
func UnregisterPackVersion(reg *Registry, clk clock.Clock, packID, version string) bool {
	pe, ok := reg.Packs[packID]
	if !ok {
		return false
	}
	ve, ok := pe.Versions[version]
	if !ok {
		return false
	}
	delete(pe.Versions, version)
	pe.History = append(pe.History, HistoryEvent{
		Timestamp:    clk.Now().UTC(),
		Action:       ActionRemove,
		Version:      version,
		ManifestHash: ve.ManifestHash,
	})
	if len(pe.Versions) == 0 {
		delete(reg.Packs, packID)
	}
	return true
}

// GetPack returns the registry entry for packID, or nil if unknown.
func GetPack(reg *Registry, packID string) *PackEntry {
	return reg.Packs[packID]
}

// ListPacks returns all pack IDs in sorted order.
func ListPacks(reg *Registry) []string {
	ids := make([]string, 0, len(reg.Packs))
	for id := range reg.Packs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetPackInstalls returns every InstallEntry recorded for packID@version.
func GetPackInstalls(reg *Registry, packID, version string) []InstallEntry {
	pe, ok := reg.Packs[packID]
	if !ok {
		return nil
	}
	ve, ok := pe.Versions[version]
	if !ok {
		return nil
	}
	return ve.Installs
}

// GetPackHistory returns packID's full history, oldest first.
func GetPackHistory(reg *Registry, packID string) []HistoryEvent {
	pe, ok := reg.Packs[packID]
	if !ok {
		return nil
	}
	return pe.History
}

// ListVersions returns every version string registered for packID.
func ListVersions(reg *Registry, packID string) []string {
	pe, ok := reg.Packs[packID]
	if !ok {
		return nil
	}
	versions := make([]string, 0, len(pe.Versions))
	for v := range pe.Versions {
		versions = append(versions, v)
	}
	return versions
}

// Clone returns a deep copy of reg, so a caller that only needs to read
// (e.g. "pack list", "archetypes list") can iterate it without risking
// aliasing the maps/slices a concurrent Install/Remove is about to mutate.
func Clone(reg *Registry) (*Registry, error) {
	var out Registry
	if err := copier.CopyWithOption(&out, reg, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("cloning registry: %w", err)
	}
	return &out, nil
}
