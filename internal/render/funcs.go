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

package render

import (
	"regexp"
	"strings"
)

var (
	caseKeep      = regexp.MustCompile(`[^a-zA-Z0-9-_ ]+`)
	snakeReplace  = regexp.MustCompile(`[- ]+`)
	hyphenReplace = regexp.MustCompile(`[_ ]+`)
)

func toSnakeCase(v string) string {
	return snakeReplace.ReplaceAllString(caseKeep.ReplaceAllString(v, ""), "_")
}

func toLowerSnakeCase(v string) string { return strings.ToLower(toSnakeCase(v)) }
func toUpperSnakeCase(v string) string { return strings.ToUpper(toSnakeCase(v)) }

func toHyphenCase(v string) string {
	return hyphenReplace.ReplaceAllString(caseKeep.ReplaceAllString(v, ""), "-")
}

func toLowerHyphenCase(v string) string { return strings.ToLower(toHyphenCase(v)) }
func toUpperHyphenCase(v string) string { return strings.ToUpper(toHyphenCase(v)) }

// FuncMap is the set of functions available to every archetype template —
// file contents, renameRules path templates, and patch op content alike
// (internal/patch uses this same map so a patch's {{.var}} content has
// access to the same case-conversion helpers a rendered file does).
func FuncMap() map[string]any {
	return map[string]any{
		"toSnakeCase":       toSnakeCase,
		"toLowerSnakeCase":  toLowerSnakeCase,
		"toUpperSnakeCase":  toUpperSnakeCase,
		"toHyphenCase":      toHyphenCase,
		"toLowerHyphenCase": toLowerHyphenCase,
		"toUpperHyphenCase": toUpperHyphenCase,
	}
}
