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

import "gopkg.in/yaml.v3"

// String is a string field together with its position in the source file.
type String = ValWithPos[string]

// Bool is a boolean field together with its position in the source file.
type Bool = ValWithPos[bool]

// Float64 is a float field together with its position in the source file.
type Float64 = ValWithPos[float64]

// ValWithPos unmarshals a T from YAML and records where in the document it
// came from, so later validation can produce a helpful error.
type ValWithPos[T any] struct {
	Val T
	Pos ConfigPos
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ValWithPos[T]) UnmarshalYAML(n *yaml.Node) error {
	if err := n.Decode(&v.Val); err != nil {
		return err //nolint:wrapcheck
	}
	v.Pos = *YAMLPos(n)
	return nil
}

// S wraps a plain string in a String with no position, for use in
// hand-constructed models (e.g. tests, or values synthesized by the engine
// rather than parsed from a file).
func S(s string) String { return String{Val: s} }

// B wraps a plain bool in a Bool with no position.
func B(b bool) Bool { return Bool{Val: b} }
