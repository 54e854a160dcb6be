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

package manifest

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/model"
	"gopkg.in/yaml.v3"
)

// PatchKind enumerates the idempotent textual mutations the Patch Engine
// knows how to apply. See SPEC_FULL.md §8.2 for the rationale behind
// settling on exactly these four.
type PatchKind string

const (
	// KindInsertAfterAnchor inserts Content on the line immediately after
	// the first line matching Anchor. A no-op if Content already appears
	// immediately after the anchor.
	KindInsertAfterAnchor PatchKind = "insert_after_anchor"

	// KindEnsureBlock replaces everything between a pair of
	// "begin:<Marker>"/"end:<Marker>" sentinel lines with Content,
	// creating the sentinel pair (appended to file end) if absent.
	KindEnsureBlock PatchKind = "ensure_block"

	// KindAppendIfMissing appends Content as a trailing block if it is not
	// already present anywhere in the file.
	KindAppendIfMissing PatchKind = "append_if_missing"

	// KindDeleteBlock removes the "begin:<Marker>"/"end:<Marker>" sentinel
	// pair and everything between them. A no-op if the markers aren't
	// present.
	KindDeleteBlock PatchKind = "delete_block"
)

var allPatchKinds = []PatchKind{
	KindInsertAfterAnchor, KindEnsureBlock, KindAppendIfMissing, KindDeleteBlock,
}

// PatchOp is one entry in an archetype's patches list. Which of Anchor,
// Marker, and Content are meaningful depends on Kind; see Validate.
type PatchOp struct {
	Pos model.ConfigPos `yaml:"-"`

	File           model.String `yaml:"file"`
	Kind           model.String `yaml:"kind"`
	IdempotencyKey model.String `yaml:"idempotencyKey"`

	Anchor  *string `yaml:"anchor,omitempty"`
	Marker  *string `yaml:"marker,omitempty"`
	Content string  `yaml:"content,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PatchOp) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, p, &p.Pos, "anchor", "marker", "content")
}

// Validate implements model.Validator. The exact set of required
// kind-specific fields is enforced here rather than at parse time, so that a
// bad "kind" and a missing field each get a clear error at this node's
// position.
func (p *PatchOp) Validate() error {
	var errs []error
	errs = append(errs,
		model.NotZeroModel(p.File, "file"),
		model.NotZeroModel(p.IdempotencyKey, "idempotencyKey"),
		model.OneOf(p.Kind, stringsOfPatchKinds(allPatchKinds), "kind"),
	)

	switch PatchKind(p.Kind.Val) {
	case KindInsertAfterAnchor:
		if p.Anchor == nil || *p.Anchor == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires field %q", KindInsertAfterAnchor, "anchor"))
		} else if _, err := regexp.Compile(*p.Anchor); err != nil {
			errs = append(errs, p.Pos.Errorf("field %q is not a valid regular expression: %w", "anchor", err))
		}
		if p.Content == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires non-empty field %q", KindInsertAfterAnchor, "content"))
		}
	case KindEnsureBlock:
		if p.Marker == nil || *p.Marker == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires field %q", KindEnsureBlock, "marker"))
		}
		if p.Content == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires non-empty field %q", KindEnsureBlock, "content"))
		}
	case KindAppendIfMissing:
		if p.Content == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires non-empty field %q", KindAppendIfMissing, "content"))
		}
	case KindDeleteBlock:
		if p.Marker == nil || *p.Marker == "" {
			errs = append(errs, p.Pos.Errorf("kind %q requires field %q", KindDeleteBlock, "marker"))
		}
	}

	return errors.Join(errs...)
}

func stringsOfPatchKinds(ks []PatchKind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}

// BeginMarker and EndMarker compute the sentinel lines the Patch Engine
// writes around an ensure_block/delete_block's managed region.
func BeginMarker(marker string) string { return fmt.Sprintf("scaffoldix:begin:%s", marker) }
func EndMarker(marker string) string   { return fmt.Sprintf("scaffoldix:end:%s", marker) }
