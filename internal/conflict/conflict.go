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

// Package conflict classifies each planned output file against the
// destination directory's current contents, before anything is written.
package conflict

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/render"
)

// Classification is the outcome for one planned file.
type Classification string

const (
	// Create means the destination file doesn't exist yet.
	Create Classification = "create"
	// Modify means the destination file exists and its bytes differ from
	// the planned content.
	Modify Classification = "modify"
	// Noop means the destination file exists and is byte-identical to the
	// planned content — nothing needs to change.
	Noop Classification = "noop"
)

// Decision is one file's classification plus the paths involved.
type Decision struct {
	RelPath        string
	DestPath       string
	Classification Classification

	// DiffPreview is a human-readable preview of what would change, set
	// only for a Modify of a non-binary file.
	DiffPreview string
}

// Detect classifies every file in plan against destRoot.
func Detect(rfs fsutil.FS, destRoot string, plan *render.Plan) ([]Decision, error) {
	decisions := make([]Decision, 0, len(plan.Files))
	for _, f := range plan.Files {
		dest := filepath.Join(destRoot, f.RelPath)

		exists, err := fsutil.ExistsFS(rfs, dest)
		if err != nil {
			return nil, fmt.Errorf("checking existence of %s: %w", dest, err)
		}
		if !exists {
			decisions = append(decisions, Decision{RelPath: f.RelPath, DestPath: dest, Classification: Create})
			continue
		}

		existing, err := rfs.ReadFile(dest)
		if err != nil {
			return nil, fmt.Errorf("ReadFile(%s): %w", dest, err)
		}

		if bytes.Equal(existing, f.Content) {
			decisions = append(decisions, Decision{RelPath: f.RelPath, DestPath: dest, Classification: Noop})
			continue
		}

		d := Decision{RelPath: f.RelPath, DestPath: dest, Classification: Modify}
		if !f.Binary {
			d.DiffPreview = unifiedDiff(string(existing), string(f.Content))
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// unifiedDiff renders a human-readable preview of what changed, used for
// --dry-run conflict previews and GENERATE_CONFLICT detail text.
func unifiedDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	return dmp.DiffPrettyText(diffs)
}

// Modified returns the subset of decisions that would change an existing
// file — the set that requires --force (or a clean destination) to proceed.
func Modified(decisions []Decision) []Decision {
	var out []Decision
	for _, d := range decisions {
		if d.Classification == Modify {
			out = append(out, d)
		}
	}
	return out
}
