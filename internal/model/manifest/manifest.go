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

// Package manifest contains the parsed representation of a pack manifest
// file (archetype.yaml or pack.yaml), per the data model in spec.md §3.
package manifest

import (
	"errors"
	"regexp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/model"
	"gopkg.in/yaml.v3"
)

// RecognizedFilenames is the list of manifest filenames the Manifest Loader
// tries, in priority order.
var RecognizedFilenames = []string{"archetype.yaml", "pack.yaml"}

// PackManifest is the root of a parsed manifest file.
type PackManifest struct {
	Pos model.ConfigPos `yaml:"-"`

	Pack       PackMeta    `yaml:"pack"`
	Archetypes []*Archetype `yaml:"archetypes"`

	// ManifestPath and PackRootDir are attached by the loader after parsing;
	// they are not part of the YAML schema and are never serialized.
	ManifestPath string `yaml:"-"`
	PackRootDir  string `yaml:"-"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PackManifest) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, p, &p.Pos)
}

// Validate implements model.Validator.
func (p *PackManifest) Validate() error {
	return errors.Join(
		p.Pack.Validate(),
		model.NonEmptySlice(&p.Pos, p.Archetypes, "archetypes"),
		model.ValidateEach(p.Archetypes),
		model.UniqueByKey(&p.Pos, p.Archetypes, "archetype id", func(a *Archetype) string { return a.ID.Val }),
	)
}

// PackMeta is the "pack" block of a manifest.
type PackMeta struct {
	Pos model.ConfigPos `yaml:"-"`

	Name                model.String         `yaml:"name"`
	Version             model.String         `yaml:"version"`
	EngineCompatibility *EngineCompatibility `yaml:"engineCompatibility,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PackMeta) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, p, &p.Pos, "engineCompatibility")
}

// Validate implements model.Validator.
func (p *PackMeta) Validate() error {
	return errors.Join(
		model.NotZeroModel(p.Name, "name"),
		model.NotZeroModel(p.Version, "version"),
		p.EngineCompatibility.validate(),
	)
}

// EngineCompatibility declares the window of host engine versions a pack
// supports.
type EngineCompatibility struct {
	Pos model.ConfigPos `yaml:"-"`

	MinVersion   *model.String  `yaml:"minVersion,omitempty"`
	MaxVersion   *model.String  `yaml:"maxVersion,omitempty"`
	Incompatible []model.String `yaml:"incompatible,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *EngineCompatibility) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, e, &e.Pos)
}

func (e *EngineCompatibility) validate() error {
	if e == nil {
		return nil
	}
	return nil
}

// Archetype is a named template tree plus optional patches, inputs, hooks,
// and checks.
type Archetype struct {
	Pos model.ConfigPos `yaml:"-"`

	ID           model.String   `yaml:"id"`
	TemplateRoot model.String   `yaml:"templateRoot"`
	Inputs       []*InputDef    `yaml:"inputs,omitempty"`
	Patches      []*PatchOp     `yaml:"patches,omitempty"`
	Hooks        *Hooks         `yaml:"hooks,omitempty"`
	Checks       []model.String `yaml:"checks,omitempty"`
	RenameRules  []*RenameRule  `yaml:"renameRules,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Archetype) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, a, &a.Pos, "inputs", "patches", "hooks", "checks", "renameRules")
}

// Validate implements model.Validator.
func (a *Archetype) Validate() error {
	return errors.Join(
		model.NotZeroModel(a.ID, "id"),
		model.NotZeroModel(a.TemplateRoot, "templateRoot"),
		model.ValidateEach(a.Inputs),
		model.ValidateEach(a.Patches),
		model.UniqueByKey(&a.Pos, a.Patches, "idempotencyKey", func(p *PatchOp) string { return p.IdempotencyKey.Val }),
	)
}

// Hooks holds the commands to run after a successful generation.
type Hooks struct {
	Pos model.ConfigPos `yaml:"-"`

	PostGenerate []model.String `yaml:"postGenerate,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Hooks) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, h, &h.Pos)
}

// RenameRule maps a known placeholder name appearing in a template path
// segment to the input (or literal) that should replace it.
type RenameRule struct {
	Pos model.ConfigPos `yaml:"-"`

	From model.String `yaml:"from"`
	To   model.String `yaml:"to"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RenameRule) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, r, &r.Pos)
}

// InputType enumerates the scalar types an input can have.
type InputType string

const (
	InputString  InputType = "string"
	InputNumber  InputType = "number"
	InputBoolean InputType = "boolean"
	InputEnum    InputType = "enum"
)

var allInputTypes = []InputType{InputString, InputNumber, InputBoolean, InputEnum}

// EnumOption is either a bare string value or a {value,label} pair.
type EnumOption struct {
	Pos model.ConfigPos `yaml:"-"`

	Value model.String `yaml:"value"`
	Label model.String `yaml:"label,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler. A bare scalar becomes
// {Value: <scalar>}.
func (e *EnumOption) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var s model.String
		if err := n.Decode(&s); err != nil {
			return err //nolint:wrapcheck
		}
		e.Value = s
		e.Pos = s.Pos
		return nil
	}
	return model.UnmarshalPlain(n, e, &e.Pos)
}

// InputCondition gates whether an input is prompted/required: it is only
// "active" when the named dependent input resolves to Equals.
type InputCondition struct {
	Pos model.ConfigPos `yaml:"-"`

	Input  model.String `yaml:"input"`
	Equals model.String `yaml:"equals"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *InputCondition) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, c, &c.Pos)
}

// InputDef describes one named, typed, validated input accepted by an
// archetype.
type InputDef struct {
	Pos model.ConfigPos `yaml:"-"`

	Name     model.String  `yaml:"name"`
	Type     model.String  `yaml:"type"`
	Required model.Bool    `yaml:"required,omitempty"`
	Default  *model.String `yaml:"default,omitempty"`

	MinLength *int    `yaml:"minLength,omitempty"`
	MaxLength *int    `yaml:"maxLength,omitempty"`
	Regex     *string `yaml:"regex,omitempty"`

	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Integer bool     `yaml:"integer,omitempty"`

	Options []*EnumOption `yaml:"options,omitempty"`

	Messages map[string]string `yaml:"messages,omitempty"`

	Condition *InputCondition `yaml:"condition,omitempty"`

	Prompt      model.String `yaml:"prompt,omitempty"`
	Description model.String `yaml:"description,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *InputDef) UnmarshalYAML(n *yaml.Node) error {
	return model.UnmarshalPlain(n, i, &i.Pos,
		"minLength", "maxLength", "regex", "min", "max", "integer",
		"options", "messages", "condition")
}

// Validate implements model.Validator.
func (i *InputDef) Validate() error {
	var errs []error
	errs = append(errs,
		model.NotZeroModel(i.Name, "name"),
		model.OneOf(model.String{Val: i.Type.Val, Pos: i.Pos}, stringsOf(allInputTypes), "type"),
	)

	if i.Type.Val == string(InputString) && i.Regex != nil {
		if _, err := regexp.Compile(*i.Regex); err != nil {
			errs = append(errs, i.Pos.Errorf("field %q is not a valid regular expression: %w", "regex", err))
		}
	}
	if i.Type.Val == string(InputNumber) && i.Min != nil && i.Max != nil && *i.Min > *i.Max {
		errs = append(errs, i.Pos.Errorf("field %q must be <= field %q", "min", "max"))
	}
	if i.Type.Val == string(InputEnum) && len(i.Options) == 0 {
		errs = append(errs, i.Pos.Errorf("type %q requires a non-empty %q list", "enum", "options"))
	}
	if i.Condition != nil {
		errs = append(errs, model.NotZeroModel(i.Condition.Input, "condition.input"))
	}

	return errors.Join(errs...)
}

func stringsOf(ts []InputType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
