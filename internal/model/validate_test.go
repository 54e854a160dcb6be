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

import (
	"fmt"
	"testing"

	"github.com/abcxyz/pkg/testutil"
	"github.com/google/go-cmp/cmp"
)

var (
	passValidator = &fakeValidator{}
	failValidator = &fakeValidator{err: fmt.Errorf("fake error for testing")}
)

func TestValidateEach(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      []*fakeValidator
		wantErr string
	}{
		{
			name: "one_valid",
			in:   []*fakeValidator{passValidator},
		},
		{
			name:    "one_invalid",
			in:      []*fakeValidator{failValidator},
			wantErr: "fake error for testing",
		},
		{
			name:    "one_valid_one_invalid",
			in:      []*fakeValidator{passValidator, failValidator},
			wantErr: "fake error for testing",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ValidateEach(tc.in)
			if diff := testutil.DiffErrString(got, tc.wantErr); diff != "" {
				t.Error(diff)
			}
		})
	}
}

type fakeValidator struct {
	err error
}

func (f *fakeValidator) Validate() error {
	return f.err
}

func TestNotZero(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		val     string
		wantErr string
	}{
		{name: "nonzero", val: "service"},
		{name: "zero", val: "", wantErr: `field "archetypeId" is required`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := NotZero(&ConfigPos{}, tc.val, "archetypeId")
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestNonEmptySlice(t *testing.T) {
	t.Parallel()

	if err := NonEmptySlice(&ConfigPos{}, []string{"a"}, "inputs"); err != nil {
		t.Errorf("got unexpected error: %v", err)
	}

	err := NonEmptySlice(&ConfigPos{}, []string{}, "inputs")
	if diff := testutil.DiffErrString(err, `field "inputs" is required`); diff != "" {
		t.Error(diff)
	}
}

func TestOneOf(t *testing.T) {
	t.Parallel()

	allowed := []string{"string", "bool"}

	if err := OneOf(ValWithPos[string]{Val: "bool"}, allowed, "type"); err != nil {
		t.Errorf("got unexpected error: %v", err)
	}

	err := OneOf(ValWithPos[string]{Val: "int"}, allowed, "type")
	if diff := testutil.DiffErrString(err, `field "type" value must be one of [string bool]`); diff != "" {
		t.Error(diff)
	}
}

func TestUniqueByKey(t *testing.T) {
	t.Parallel()

	keyFn := func(s string) string { return s }

	if err := UniqueByKey(&ConfigPos{}, []string{"a", "b"}, "name", keyFn); err != nil {
		t.Errorf("got unexpected error: %v", err)
	}

	err := UniqueByKey(&ConfigPos{}, []string{"a", "a"}, "name", keyFn)
	if diff := testutil.DiffErrString(err, `duplicate name "a"`); diff != "" {
		t.Error(diff)
	}
}

func TestSAndB(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(S("hi"), String{Val: "hi"}); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff(B(true), Bool{Val: true}); diff != "" {
		t.Error(diff)
	}
}
