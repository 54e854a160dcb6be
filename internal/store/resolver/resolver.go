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

// Package resolver picks a concrete installed version of a pack to use for
// a given reference (an exact version, a semver constraint, or "latest").
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/registrystore"
)

// PackRef is a parsed "packId[:version-or-constraint]" reference.
type PackRef struct {
	PackID     string
	Constraint string // empty means "latest"
}

// candidate pairs a parsed semver with the registry version string and
// install metadata it came from, so Resolve can tie-break on InstalledAt
// without re-parsing.
type candidate struct {
	version      string
	semver       *semver.Version
	installedAt  int64 // unix nanos, for tie-breaking
}

// Resolve picks the best installed version of ref.PackID satisfying
// ref.Constraint (or the highest semver if Constraint is empty), breaking
// ties between equal versions by most recently installed. Returns an error
// naming the available versions if nothing matches.
func Resolve(reg *registrystore.Registry, ref PackRef) (string, error) {
	pe := registrystore.GetPack(reg, ref.PackID)
	if pe == nil || len(pe.Versions) == 0 {
		return "", scaffolderr.New(scaffolderr.CategoryStore, "PACK_NOT_INSTALLED",
			fmt.Sprintf("pack %q is not installed", ref.PackID)).AsOperational()
	}

	var constraint *semver.Constraints
	if ref.Constraint != "" {
		c, err := semver.NewConstraint(ref.Constraint)
		if err != nil {
			return "", scaffolderr.New(scaffolderr.CategoryUsage, "INVALID_VERSION_CONSTRAINT",
				fmt.Sprintf("invalid version constraint %q: %s", ref.Constraint, err)).AsOperational()
		}
		constraint = c
	}

	var candidates []candidate
	var available []string
	for v, ve := range pe.Versions {
		available = append(available, v)
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue // a non-semver version string can never satisfy a constraint
		}
		if constraint != nil && !constraint.Check(sv) {
			continue
		}
		installedAt := ve.InstalledAt.UnixNano()
		if len(ve.Installs) > 0 {
			// The most recent install record wins the tie-break, not the
			// version's original install time.
			for _, inst := range ve.Installs {
				if t := inst.InstalledAt.UnixNano(); t > installedAt {
					installedAt = t
				}
			}
		}
		candidates = append(candidates, candidate{version: v, semver: sv, installedAt: installedAt})
	}

	if len(candidates) == 0 {
		sort.Strings(available)
		return "", scaffolderr.New(scaffolderr.CategoryStore, "VERSION_NOT_FOUND",
			fmt.Sprintf("no installed version of pack %q satisfies %q; installed versions: %v",
				ref.PackID, displayConstraint(ref.Constraint), available)).
			WithHint(fmt.Sprintf("installed versions: %s", strings.Join(available, ", "))).
			AsOperational()
	}

	sort.Slice(candidates, func(i, j int) bool {
		cmp := candidates[i].semver.Compare(candidates[j].semver)
		if cmp != 0 {
			return cmp > 0 // highest semver first
		}
		return candidates[i].installedAt > candidates[j].installedAt // then most recently installed
	})

	return candidates[0].version, nil
}

// ListVersions returns every installed version string of packID, sorted
// highest-semver-first (non-semver strings sort after, alphabetically).
func ListVersions(reg *registrystore.Registry, packID string) []string {
	raw := registrystore.ListVersions(reg, packID)

	var semvers []*semver.Version
	var nonSemver []string
	for _, v := range raw {
		if sv, err := semver.NewVersion(v); err == nil {
			semvers = append(semvers, sv)
		} else {
			nonSemver = append(nonSemver, v)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(semvers)))
	sort.Strings(nonSemver)

	out := make([]string, 0, len(raw))
	for _, sv := range semvers {
		out = append(out, sv.Original())
	}
	out = append(out, nonSemver...)
	return out
}

func displayConstraint(c string) string {
	if c == "" {
		return "latest"
	}
	return c
}
