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

package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abcxyz/pkg/testutil"
	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
)

func TestLoadMissingFileIsEmptyNotError(t *testing.T) {
	t.Parallel()

	ps, err := Load(&fsutil.RealFS{}, t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(ps, &ProjectState{SchemaVersion: SchemaVersion}); diff != "" {
		t.Errorf("Load() on a fresh dir (-got +want): %s", diff)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ps, err := Load(&fsutil.RealFS{}, dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rec := GenerationRecord{
		PackID:       "acme/widgets",
		PackVersion:  "1.2.0",
		ArchetypeID:  "service",
		Inputs:       map[string]any{"ServiceName": "orders"},
		FilesWritten: []string{"main.go"},
		Timestamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	Append(ps, rec)

	if err := Save(&fsutil.RealFS{}, dir, ps); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(&fsutil.RealFS{}, dir)
	if err != nil {
		t.Fatalf("Load (after save): %v", err)
	}
	if diff := cmp.Diff(reloaded, ps); diff != "" {
		t.Errorf("reloaded state (-got +want): %s", diff)
	}

	last := Last(reloaded)
	if last == nil || last.PackID != "acme/widgets" {
		t.Errorf("Last() = %+v, want a record for acme/widgets", last)
	}
	if last.ID == "" {
		t.Error("Last().ID is empty, want a generated UUID")
	}
	if last.Status != StatusCompleted {
		t.Errorf("Last().Status = %q, want %q", last.Status, StatusCompleted)
	}
	if reloaded.UpdatedAt.IsZero() {
		t.Error("reloaded.UpdatedAt is zero, want the record's timestamp")
	}
	if reloaded.LastGeneration == nil {
		t.Fatal("reloaded.LastGeneration is nil, want a projection of the last record")
	}
	if diff := cmp.Diff(reloaded.LastGeneration, &LastGeneration{
		PackID:      last.PackID,
		PackVersion: last.PackVersion,
		ArchetypeID: last.ArchetypeID,
		Inputs:      last.Inputs,
		Timestamp:   last.Timestamp,
	}); diff != "" {
		t.Errorf("LastGeneration (-got +want): %s", diff)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DirName), fsutil.OwnerRWXPerms); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(Path(dir), []byte("{not valid json"), fsutil.OwnerRWPerms); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(&fsutil.RealFS{}, dir)
	if diff := testutil.DiffErrString(err, "STATE_INVALID_JSON"); diff != "" {
		t.Error(diff)
	}
}

func TestLoadUnknownSchemaVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DirName), fsutil.OwnerRWXPerms); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(Path(dir), []byte(`{"schemaVersion": 99, "generations": []}`), fsutil.OwnerRWPerms); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(&fsutil.RealFS{}, dir)
	if diff := testutil.DiffErrString(err, "STATE_INVALID_SCHEMA"); diff != "" {
		t.Error(diff)
	}
}

func TestLastOnEmptyState(t *testing.T) {
	t.Parallel()

	if got := Last(&ProjectState{}); got != nil {
		t.Errorf("Last() on empty state = %+v, want nil", got)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	got := Path("/tmp/project")
	want := "/tmp/project/.scaffoldix/state.json"
	if diff := cmp.Diff(got, want); diff != "" {
		t.Error(diff)
	}
}
