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

package conflict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/render"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	destRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(destRoot, "unchanged.txt"), []byte("same"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destRoot, "changed.txt"), []byte("old"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}

	plan := &render.Plan{Files: []render.PlannedFile{
		{RelPath: "unchanged.txt", Content: []byte("same")},
		{RelPath: "changed.txt", Content: []byte("new")},
		{RelPath: "new.txt", Content: []byte("brand new")},
	}}

	decisions, err := Detect(&fsutil.RealFS{}, destRoot, plan)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	want := map[string]Classification{
		"unchanged.txt": Noop,
		"changed.txt":   Modify,
		"new.txt":       Create,
	}
	got := map[string]Classification{}
	for _, d := range decisions {
		got[d.RelPath] = d.Classification
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("classifications (-got +want): %s", diff)
	}
}

func TestModified(t *testing.T) {
	t.Parallel()

	decisions := []Decision{
		{RelPath: "a", Classification: Create},
		{RelPath: "b", Classification: Modify},
		{RelPath: "c", Classification: Noop},
		{RelPath: "d", Classification: Modify},
	}

	got := Modified(decisions)
	want := []Decision{
		{RelPath: "b", Classification: Modify},
		{RelPath: "d", Classification: Modify},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Modified() (-got +want): %s", diff)
	}
}

func TestDetectDiffPreview(t *testing.T) {
	t.Parallel()

	destRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(destRoot, "changed.txt"), []byte("old"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destRoot, "changed.bin"), []byte("old"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destRoot, "unchanged.txt"), []byte("same"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}

	plan := &render.Plan{Files: []render.PlannedFile{
		{RelPath: "changed.txt", Content: []byte("new")},
		{RelPath: "changed.bin", Content: []byte("new"), Binary: true},
		{RelPath: "unchanged.txt", Content: []byte("same")},
		{RelPath: "brand-new.txt", Content: []byte("brand new")},
	}}

	decisions, err := Detect(&fsutil.RealFS{}, destRoot, plan)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	byPath := map[string]Decision{}
	for _, d := range decisions {
		byPath[d.RelPath] = d
	}

	if byPath["changed.txt"].DiffPreview == "" {
		t.Error("expected a non-empty DiffPreview for a modified non-binary file")
	}
	if byPath["changed.bin"].DiffPreview != "" {
		t.Error("expected no DiffPreview for a modified binary file")
	}
	if byPath["unchanged.txt"].DiffPreview != "" {
		t.Error("expected no DiffPreview for a noop file")
	}
	if byPath["brand-new.txt"].DiffPreview != "" {
		t.Error("expected no DiffPreview for a newly created file")
	}
}
