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

// Package compat checks a pack's engineCompatibility block against the
// running engine's version, reporting the first constraint that fails
// (rather than all of them) so the error message is always the same for a
// given (engineVersion, manifest) pair, regardless of map iteration order.
package compat

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// Check validates engineVersion against ec's minVersion, maxVersion, and
// incompatible list, in that order, returning on the first failing
// constraint. A nil ec is always compatible. packID and packVersion
// identify the pack being checked, for the returned error's details.
func Check(ec *manifest.EngineCompatibility, engineVersion, packID, packVersion string) error {
	if ec == nil {
		return nil
	}

	ev, err := semver.NewVersion(engineVersion)
	if err != nil {
		return scaffolderr.New(scaffolderr.CategoryInternal, "ENGINE_VERSION_UNPARSEABLE",
			fmt.Sprintf("engine version %q is not a valid semantic version", engineVersion))
	}

	if ec.MinVersion != nil && ec.MinVersion.Val != "" {
		min, err := semver.NewVersion(ec.MinVersion.Val)
		if err != nil {
			return ec.Pos.Errorf("minVersion %q is not a valid semantic version: %w", ec.MinVersion.Val, err)
		}
		if ev.LessThan(min) {
			return incompatibleErr(packID, packVersion, engineVersion, fmt.Sprintf("minVersion=%s", min),
				fmt.Sprintf("this pack requires engine version >= %s, but the running engine is %s", min, ev)).
				WithHint("upgrade scaffoldix, or install an older version of this pack")
		}
	}

	if ec.MaxVersion != nil && ec.MaxVersion.Val != "" {
		max, err := semver.NewVersion(ec.MaxVersion.Val)
		if err != nil {
			return ec.Pos.Errorf("maxVersion %q is not a valid semantic version: %w", ec.MaxVersion.Val, err)
		}
		if ev.GreaterThan(max) {
			return incompatibleErr(packID, packVersion, engineVersion, fmt.Sprintf("maxVersion=%s", max),
				fmt.Sprintf("this pack requires engine version <= %s, but the running engine is %s", max, ev)).
				WithHint("install a newer version of this pack, or pin to an older engine")
		}
	}

	for _, bad := range ec.Incompatible {
		if bad.Val == "" {
			continue
		}
		badV, err := semver.NewVersion(bad.Val)
		if err != nil {
			return ec.Pos.Errorf("incompatible entry %q is not a valid semantic version: %w", bad.Val, err)
		}
		if ev.Equal(badV) {
			return incompatibleErr(packID, packVersion, engineVersion, fmt.Sprintf("incompatible=[%s]", badV),
				fmt.Sprintf("this pack explicitly declares engine version %s incompatible", ev))
		}
	}

	return nil
}

// incompatibleErr builds the single PACK_INCOMPATIBLE error code used for
// every engineCompatibility violation, carrying the constraint that failed.
func incompatibleErr(packID, packVersion, engineVersion, constraint, message string) *scaffolderr.Error {
	return scaffolderr.New(scaffolderr.CategoryCompat, "PACK_INCOMPATIBLE", message).
		WithDetail("packId", packID).
		WithDetail("packVersion", packVersion).
		WithDetail("engineVersion", engineVersion).
		WithDetail("constraints", constraint).
		AsOperational()
}
