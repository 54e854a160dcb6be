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

// Package state persists, per generation target directory, an append-only
// record of every "generate" run performed against it:
// <targetDir>/.scaffoldix/state.json. Unlike the pack registry (which
// tracks what's installed engine-wide), this file travels with the
// generated project itself, so "what generated this file, and with what
// inputs" survives a git clone onto another machine.
package state

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// SchemaVersion is the current on-disk schema version.
const SchemaVersion = 2

// DirName is the directory, relative to a generation target, that holds
// the state file.
const DirName = ".scaffoldix"

// FileName is the state file's name within DirName.
const FileName = "state.json"

// Status values for GenerationRecord.Status.
const (
	StatusCompleted = "completed"
	StatusDryRun    = "dry-run"
)

// GenerationRecord is one completed (or dry-run) "generate" invocation.
type GenerationRecord struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	PackID         string         `json:"packId"`
	PackVersion    string         `json:"packVersion"`
	ManifestHash   string         `json:"manifestHash"`
	ArchetypeID    string         `json:"archetypeId"`
	Inputs         map[string]any `json:"inputs"`
	FilesWritten   []string       `json:"filesWritten,omitempty"`
	PatchesApplied []string       `json:"patchesApplied,omitempty"`
	DryRun         bool           `json:"dryRun"`
	Status         string         `json:"status"`
}

// LastGeneration is generations' final entry, projected to the subset of
// fields callers most often want without walking the full history.
type LastGeneration struct {
	PackID      string         `json:"packId"`
	PackVersion string         `json:"packVersion"`
	ArchetypeID string         `json:"archetypeId"`
	Inputs      map[string]any `json:"inputs"`
	Timestamp   time.Time      `json:"timestamp"`
}

// ProjectState is the root document.
type ProjectState struct {
	SchemaVersion int                `json:"schemaVersion"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Generations   []GenerationRecord `json:"generations"`

	// LastGeneration always equals Generations' final entry, projected to
	// its subset of fields. Nil only when Generations is empty.
	LastGeneration *LastGeneration `json:"lastGeneration,omitempty"`
}

// Path returns the state file path for a given generation target directory.
func Path(targetDir string) string {
	return filepath.Join(targetDir, DirName, FileName)
}

// Load reads the project state for targetDir. A missing file returns a
// fresh, empty ProjectState — "never generated into before" is the normal
// starting condition, not an error.
func Load(rfs fsutil.FS, targetDir string) (*ProjectState, error) {
	p := Path(targetDir)
	exists, err := fsutil.ExistsFS(rfs, p)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if !exists {
		return &ProjectState{SchemaVersion: SchemaVersion}, nil
	}

	raw, err := rfs.ReadFile(p)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	var ps ProjectState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, scaffolderr.Wrap(scaffolderr.CategoryStore, "STATE_INVALID_JSON", err).AsOperational()
	}
	if ps.SchemaVersion != SchemaVersion {
		return nil, scaffolderr.New(scaffolderr.CategoryStore, "STATE_INVALID_SCHEMA",
			fmt.Sprintf("%s has schema version %d, but this engine only understands version %d", p, ps.SchemaVersion, SchemaVersion)).
			AsOperational()
	}
	return &ps, nil
}

// Append adds rec to ps in memory; it writes nothing, and Save persists
// the result. A dry-run generation can call Append to preview what would
// be recorded and skip Save.
//
// rec.ID is assigned here if unset, and LastGeneration/UpdatedAt are kept
// in sync with rec, the invariant the Project State Manager maintains.
func Append(ps *ProjectState, rec GenerationRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusCompleted
		if rec.DryRun {
			rec.Status = StatusDryRun
		}
	}

	ps.SchemaVersion = SchemaVersion
	ps.Generations = append(ps.Generations, rec)
	ps.UpdatedAt = rec.Timestamp
	ps.LastGeneration = &LastGeneration{
		PackID:      rec.PackID,
		PackVersion: rec.PackVersion,
		ArchetypeID: rec.ArchetypeID,
		Inputs:      rec.Inputs,
		Timestamp:   rec.Timestamp,
	}
}

// Save writes ps to targetDir's state file atomically.
func Save(rfs fsutil.FS, targetDir string, ps *ProjectState) error {
	ps.SchemaVersion = SchemaVersion
	buf, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return err //nolint:wrapcheck
	}
	buf = append(buf, '\n')
	return fsutil.WriteAtomic(rfs, Path(targetDir), buf, fsutil.OwnerRWPerms) //nolint:wrapcheck
}

// Last returns the most recent generation record, or nil if none.
func Last(ps *ProjectState) *GenerationRecord {
	if len(ps.Generations) == 0 {
		return nil
	}
	return &ps.Generations[len(ps.Generations)-1]
}
