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

package scaffolderr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrorError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "no_hint",
			err:  New(CategoryUsage, "INVALID_ARCHETYPE_REF", "ref has no archetype id"),
			want: "INVALID_ARCHETYPE_REF: ref has no archetype id",
		},
		{
			name: "with_hint",
			err:  New(CategoryConflict, "GENERATE_CONFLICT", "2 files would be overwritten").WithHint("pass --force to overwrite"),
			want: "GENERATE_CONFLICT: 2 files would be overwritten (hint: pass --force to overwrite)",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.err.Error(), tc.want); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("disk full")
	err := Wrap(CategoryStore, "PACK_STORE_MISSING", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if diff := cmp.Diff(err.Message, cause.Error()); diff != "" {
		t.Error(diff)
	}
}

func TestWithDetail(t *testing.T) {
	t.Parallel()

	err := New(CategoryManifest, "TEMPLATE_DIR_NOT_FOUND", "missing dir").
		WithDetail("path", "./templates/service").
		WithDetail("archetype", "service")

	want := map[string]string{"path": "./templates/service", "archetype": "service"}
	if diff := cmp.Diff(err.Details, want); diff != "" {
		t.Error(diff)
	}
}

func TestAsOperational(t *testing.T) {
	t.Parallel()

	err := New(CategoryInput, "UNKNOWN_INPUT", "bogus")
	if err.Operational {
		t.Errorf("Operational = true before AsOperational()")
	}
	err.AsOperational()
	if !err.Operational {
		t.Errorf("Operational = false after AsOperational()")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "usage", err: New(CategoryUsage, "X", "m"), want: 2},
		{name: "conflict", err: New(CategoryConflict, "X", "m"), want: 40},
		{name: "hook", err: New(CategoryHook, "X", "m"), want: 60},
		{name: "internal_fallback", err: fmt.Errorf("plain error"), want: 90},
		{
			name: "wrapped_structured_error",
			err:  fmt.Errorf("context: %w", New(CategoryPatch, "X", "m")),
			want: 50,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ExitCode(tc.err)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestCode(t *testing.T) {
	t.Parallel()

	gotCode, ok := Code(New(CategoryCompat, "PACK_INCOMPATIBLE", "m"))
	if !ok || gotCode != "PACK_INCOMPATIBLE" {
		t.Errorf("Code() = (%q, %v), want (%q, true)", gotCode, ok, "PACK_INCOMPATIBLE")
	}

	_, ok = Code(fmt.Errorf("unstructured"))
	if ok {
		t.Errorf("Code() ok = true for an unstructured error, want false")
	}
}
