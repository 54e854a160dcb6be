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

package model

// Notes for maintainers:
//
// We override UnmarshalYAML on every model struct for two reasons: to record
// the line/column of each object (so validation errors can point at the
// input file), and to reject unrecognized fields, which upstream yaml.v3
// can't do reliably for every struct shape (see
// https://github.com/go-yaml/yaml/issues/460).

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// UnmarshalPlain unmarshals n into outPtr as if outPtr had no UnmarshalYAML
// method of its own, then records outPtr's position into outPos. The
// `yaml:"..."` tags on outPtr's fields are used to compute the set of known
// field names; anything else in the YAML is an error. extraYAMLFields names
// additional fields (handled specially by the caller) that should not be
// rejected as unknown.
func UnmarshalPlain(n *yaml.Node, outPtr any, outPos *ConfigPos, extraYAMLFields ...string) error {
	fields := reflect.VisibleFields(reflect.TypeOf(outPtr).Elem())

	known := make([]string, 0, len(fields)+len(extraYAMLFields))
	for _, f := range fields {
		key, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if key == "" || key == "-" {
			continue
		}
		known = append(known, key)
	}
	known = append(known, extraYAMLFields...)

	if err := rejectUnknownFields(n, known); err != nil {
		return err
	}

	// Decode into a structurally-identical type with no methods, to avoid
	// infinitely recursing back into this same UnmarshalYAML.
	shadowType := reflect.StructOf(fields)
	shadow := reflect.New(shadowType)
	if err := n.Decode(shadow.Interface()); err != nil {
		return err //nolint:wrapcheck
	}
	reflect.ValueOf(outPtr).Elem().Set(shadow.Elem())

	*outPos = *YAMLPos(n)
	return nil
}

// rejectUnknownFields returns an error if n (which must be a mapping node)
// contains a key not present in knownFields.
func rejectUnknownFields(n *yaml.Node, knownFields []string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("got yaml node of kind %d, expected a mapping", n.Kind)
	}

	m := map[string]any{}
	if err := n.Decode(m); err != nil {
		return err //nolint:wrapcheck
	}

	var unknown string
	for k := range m {
		if !slices.Contains(knownFields, k) {
			unknown = k
			break
		}
	}
	if unknown == "" {
		return nil
	}

	pos := YAMLPos(n)
	for _, c := range n.Content {
		if c.Value == unknown {
			pos = YAMLPos(c)
		}
	}
	return pos.Errorf("unknown field name %q; valid choices are %v", unknown, knownFields)
}

// DecodeAndValidate unmarshals the YAML text in r into outPtr and validates
// it. filename is used only for error messages.
func DecodeAndValidate(r io.Reader, filename string, outPtr Validator) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(false) // we do our own, position-aware field checking
	if err := dec.Decode(outPtr); err != nil {
		return fmt.Errorf("error parsing %s: %w", filename, err)
	}
	if err := outPtr.Validate(); err != nil {
		return fmt.Errorf("validation failed in %s: %w", filename, err)
	}
	return nil
}
