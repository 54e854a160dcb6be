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

// Validation is a separate pass from UnmarshalYAML on purpose:
// UnmarshalYAML is only invoked for fields actually present in the source
// document, so a struct relying on zero values would never get validated if
// validation lived inside UnmarshalYAML.

import (
	"errors"

	"golang.org/x/exp/slices"
)

// NotZero returns an error if t equals the zero value for T.
func NotZero[T comparable](pos *ConfigPos, t T, fieldName string) error {
	var zero T
	if t == zero {
		return pos.Errorf("field %q is required", fieldName)
	}
	return nil
}

// NotZeroModel is NotZero for a ValWithPos field; the error is reported at
// the field's own position rather than the parent's.
func NotZeroModel[T comparable](x ValWithPos[T], fieldName string) error {
	return NotZero(&x.Pos, x.Val, fieldName)
}

// NonEmptySlice returns an error if s is empty.
func NonEmptySlice[T any](pos *ConfigPos, s []T, fieldName string) error {
	if len(s) == 0 {
		return pos.Errorf("field %q is required", fieldName)
	}
	return nil
}

// OneOf returns an error if x.Val isn't one of allowed.
func OneOf[T comparable](x ValWithPos[T], allowed []T, fieldName string) error {
	if slices.Contains(allowed, x.Val) {
		return nil
	}
	return x.Pos.Errorf("field %q value must be one of %v", fieldName, allowed)
}

// Validator is any model struct with a Validate method. Useful for "higher
// order" validation like ValidateEach below.
type Validator interface {
	Validate() error
}

// ValidateEach calls Validate on every element and joins all the errors.
func ValidateEach[T Validator](s []T) error {
	var merr error
	for _, v := range s {
		merr = errors.Join(merr, v.Validate())
	}
	return merr
}

// UniqueByKey returns an error naming the first duplicate key produced by
// keyFn, or nil if all keys are distinct.
func UniqueByKey[T any](pos *ConfigPos, items []T, fieldName string, keyFn func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		k := keyFn(item)
		if seen[k] {
			return pos.Errorf("duplicate %s %q", fieldName, k)
		}
		seen[k] = true
	}
	return nil
}
