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

// Package canonhash computes the content-addressing hash for a pack
// manifest and verifies an installed pack's template tree against a
// previously recorded directory hash.
//
// The manifest hash must be stable across semantically-identical YAML
// documents (key order, trailing whitespace, and line-ending style must not
// change it), so raw bytes can't be hashed directly: the manifest is parsed,
// re-serialized with every mapping's keys sorted, newlines normalized to LF,
// and only then hashed.
package canonhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/sumdb/dirhash"
	"gopkg.in/yaml.v3"
)

// ErrCode is returned alongside parse failures so callers can map them to
// the MANIFEST_YAML_ERROR error code without string-matching.
const ErrCode = "MANIFEST_YAML_ERROR"

// YAMLError wraps a manifest parse failure encountered while canonicalizing.
type YAMLError struct {
	Cause error
}

func (e *YAMLError) Error() string { return fmt.Sprintf("%s: %s", ErrCode, e.Cause) }
func (e *YAMLError) Unwrap() error { return e.Cause }

// Manifest returns the canonical hash of a manifest's YAML bytes: a bare
// 64-lowercase-hex SHA-256 digest, matching ^[a-f0-9]{64}$. It has no "h1:"
// prefix — that convention belongs to HashTemplateDir/VerifyTemplateDir's
// dirhash algorithm tag, an unrelated hash over a different input.
func Manifest(raw []byte) (string, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(raw, &n); err != nil {
		return "", &YAMLError{Cause: err}
	}
	sortKeys(&n)

	canon, err := yaml.Marshal(&n)
	if err != nil {
		return "", &YAMLError{Cause: err}
	}
	canon = []byte(strings.ReplaceAll(string(canon), "\r\n", "\n"))

	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// sortKeys recursively reorders every mapping node's key/value content pairs
// into ascending key order, in place. Sequence and scalar nodes recurse into
// their children unchanged in order.
func sortKeys(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode:
		type kv struct{ k, v *yaml.Node }
		pairs := make([]kv, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			pairs = append(pairs, kv{n.Content[i], n.Content[i+1]})
		}
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].k.Value < pairs[j].k.Value })
		content := make([]*yaml.Node, 0, len(n.Content))
		for _, p := range pairs {
			sortKeys(p.v)
			content = append(content, p.k, p.v)
		}
		n.Content = content
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			sortKeys(c)
		}
	}
}

var latestHash = dirhash.Hash1

// HashTemplateDir computes a dirhash ("h1:...") of a pack's template
// directory. The registry does not store this hash; it records the
// manifest hash.
func HashTemplateDir(dir string) (string, error) {
	out, err := dirhash.HashDir(dir, "", latestHash)
	if err != nil {
		return "", fmt.Errorf("dirhash.HashDir: %w", err)
	}
	return out, nil
}

// VerifyTemplateDir reports whether dir's current dirhash matches wantHash.
func VerifyTemplateDir(wantHash, dir string) (bool, error) {
	tokens := strings.SplitN(wantHash, ":", 2)
	if len(tokens) != 2 {
		return false, fmt.Errorf("malformed hash, expected <algorithm>:<value>, got %q", wantHash)
	}

	var h dirhash.Hash
	switch tokens[0] {
	case "h1":
		h = latestHash
	default:
		return false, fmt.Errorf("unknown hash algorithm %q", tokens[0])
	}

	got, err := dirhash.HashDir(dir, "", h)
	if err != nil {
		return false, fmt.Errorf("dirhash.HashDir: %w", err)
	}
	return got == wantHash, nil
}
