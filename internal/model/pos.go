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

// Package model holds the primitives shared by every YAML-backed schema in
// the engine: manifests, registries, and project state all decode into
// structs built from these building blocks so that validation errors can
// point at a line and column in the source file.
package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigPos stores the position of a config value so error messages can
// point at the offending line. The zero value means "position unknown."
type ConfigPos struct {
	Line   int
	Column int
}

// YAMLPos constructs a position from a YAML parse cursor.
func YAMLPos(n *yaml.Node) *ConfigPos {
	return &ConfigPos{Line: n.Line, Column: n.Column}
}

// Errorf returns an error prefixed with position information, if available.
func (c *ConfigPos) Errorf(fmtStr string, args ...any) error {
	err := fmt.Errorf(fmtStr, args...)
	if c == nil || *c == (ConfigPos{}) {
		return err
	}
	return fmt.Errorf("at line %d column %d: %w", c.Line, c.Column, err)
}
