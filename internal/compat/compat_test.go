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

package compat

import (
	"errors"
	"testing"

	"github.com/abcxyz/pkg/testutil"
	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/model"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

func strp(s string) *model.String { v := model.S(s); return &v }

func TestCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		ec            *manifest.EngineCompatibility
		engineVersion string
		wantErr       string
	}{
		{
			name:          "nil_compatibility_always_ok",
			ec:            nil,
			engineVersion: "1.0.0",
		},
		{
			name:          "within_range",
			ec:            &manifest.EngineCompatibility{MinVersion: strp("1.0.0"), MaxVersion: strp("2.0.0")},
			engineVersion: "1.5.0",
		},
		{
			name:          "too_old",
			ec:            &manifest.EngineCompatibility{MinVersion: strp("2.0.0")},
			engineVersion: "1.0.0",
			wantErr:       "PACK_INCOMPATIBLE",
		},
		{
			name:          "too_new",
			ec:            &manifest.EngineCompatibility{MaxVersion: strp("1.0.0")},
			engineVersion: "2.0.0",
			wantErr:       "PACK_INCOMPATIBLE",
		},
		{
			name:          "explicitly_incompatible",
			ec:            &manifest.EngineCompatibility{Incompatible: []model.String{model.S("1.5.0")}},
			engineVersion: "1.5.0",
			wantErr:       "PACK_INCOMPATIBLE",
		},
		{
			name:          "unparseable_engine_version",
			ec:            &manifest.EngineCompatibility{MinVersion: strp("1.0.0")},
			engineVersion: "not-a-version",
			wantErr:       "ENGINE_VERSION_UNPARSEABLE",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := Check(tc.ec, tc.engineVersion, "acme/widgets", "1.0.0")
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestCheckIncompatibleDetails(t *testing.T) {
	t.Parallel()

	err := Check(&manifest.EngineCompatibility{MinVersion: strp("1.0.0")}, "0.5.0", "acme/widgets", "3.2.1")

	var se *scaffolderr.Error
	if !errors.As(err, &se) {
		t.Fatalf("Check() error is not a *scaffolderr.Error: %v", err)
	}
	want := map[string]string{
		"packId":        "acme/widgets",
		"packVersion":   "3.2.1",
		"engineVersion": "0.5.0",
		"constraints":   "minVersion=1.0.0",
	}
	if diff := cmp.Diff(se.Details, want); diff != "" {
		t.Errorf("Details (-got +want): %s", diff)
	}
}
