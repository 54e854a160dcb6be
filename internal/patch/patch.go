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

// Package patch applies an archetype's ordered, idempotent textual
// mutations to files already present in the destination directory — the
// step that runs after rendering new files, to weave generated code into
// files the project already owns (e.g. inserting an import, registering a
// route). Each mutation is keyed by an idempotencyKey: applying the same
// patch twice produces the same file contents, never a duplicate edit.
package patch

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/render"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// Outcome is what happened when one PatchOp was applied.
type Outcome string

const (
	Applied Outcome = "applied"
	Skipped Outcome = "skipped" // already idempotent-safe: content already present/absent as desired
	Failed  Outcome = "failed"
)

// Result records one patch's outcome, and — for Modify-in-place patches
// that actually changed the file — a unified-style diff for trace output.
type Result struct {
	IdempotencyKey string
	File           string
	Outcome        Outcome
	Diff           string
	Err            error
}

// Summary is the full result of applying an archetype's patch list.
type Summary struct {
	Results []Result
}

// Applied returns the idempotency keys that made a change.
func (s Summary) Applied() []string { return keysWith(s.Results, Applied) }

// Skipped returns the idempotency keys that were already satisfied.
func (s Summary) Skipped() []string { return keysWith(s.Results, Skipped) }

// Failed returns the idempotency keys that errored.
func (s Summary) Failed() []string { return keysWith(s.Results, Failed) }

func keysWith(results []Result, o Outcome) []string {
	var out []string
	for _, r := range results {
		if r.Outcome == o {
			out = append(out, r.IdempotencyKey)
		}
	}
	return out
}

// ApplyAll applies every patch in order against destRoot. In strict mode,
// the first failing patch stops the whole operation and returns its error;
// in non-strict mode, a failing patch is recorded in the Summary and the
// remaining patches still run.
func ApplyAll(rfs fsutil.FS, destRoot string, patches []*manifest.PatchOp, vars map[string]any, strict bool) (Summary, error) {
	var summary Summary
	for _, p := range patches {
		res := applyOne(rfs, destRoot, p, vars)
		summary.Results = append(summary.Results, res)
		if res.Outcome == Failed && strict {
			return summary, res.Err
		}
	}
	return summary, nil
}

func applyOne(rfs fsutil.FS, destRoot string, p *manifest.PatchOp, vars map[string]any) Result {
	res := Result{IdempotencyKey: p.IdempotencyKey.Val, File: p.File.Val}

	filePath, err := tmplString(p.File.Val, vars)
	if err != nil {
		res.Outcome, res.Err = Failed, err
		return res
	}
	absPath := filePath
	if !strings.HasPrefix(filePath, destRoot) {
		absPath = joinRoot(destRoot, filePath)
	}
	res.File = filePath

	content, err := rfs.ReadFile(absPath)
	if err != nil {
		res.Outcome = Failed
		res.Err = scaffolderr.New(scaffolderr.CategoryPatch, "PATCH_TARGET_MISSING",
			fmt.Sprintf("patch %q targets %q, which does not exist: %s", p.IdempotencyKey.Val, filePath, err)).AsOperational()
		return res
	}

	var newContent string
	var changed bool
	switch manifest.PatchKind(p.Kind.Val) {
	case manifest.KindInsertAfterAnchor:
		newContent, changed, err = insertAfterAnchor(string(content), p, vars)
	case manifest.KindEnsureBlock:
		newContent, changed, err = ensureBlock(string(content), p, vars)
	case manifest.KindAppendIfMissing:
		newContent, changed, err = appendIfMissing(string(content), p, vars)
	case manifest.KindDeleteBlock:
		newContent, changed = deleteBlock(string(content), p)
	default:
		err = fmt.Errorf("unknown patch kind %q", p.Kind.Val)
	}
	if err != nil {
		res.Outcome, res.Err = Failed, err
		return res
	}

	if !changed {
		res.Outcome = Skipped
		return res
	}

	if err := rfs.WriteFile(absPath, []byte(newContent), fsutil.OwnerRWPerms); err != nil {
		res.Outcome = Failed
		res.Err = fmt.Errorf("writing patched file %s: %w", filePath, err)
		return res
	}

	res.Outcome = Applied
	res.Diff = unifiedDiff(string(content), newContent)
	return res
}

func insertAfterAnchor(content string, p *manifest.PatchOp, vars map[string]any) (string, bool, error) {
	anchorPattern, err := tmplString(*p.Anchor, vars)
	if err != nil {
		return "", false, err
	}
	insertText, err := tmplString(p.Content, vars)
	if err != nil {
		return "", false, err
	}

	re, err := regexp.Compile(anchorPattern)
	if err != nil {
		return "", false, p.Pos.Errorf("invalid anchor regex %q: %w", anchorPattern, err)
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		if i+1 < len(lines) && lines[i+1] == insertText {
			return content, false, nil // already inserted, idempotent no-op
		}
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:i+1]...)
		out = append(out, insertText)
		out = append(out, lines[i+1:]...)
		return strings.Join(out, "\n"), true, nil
	}

	return "", false, scaffolderr.New(scaffolderr.CategoryPatch, "PATCH_ANCHOR_NOT_FOUND",
		fmt.Sprintf("patch %q: no line in %q matched anchor %q", p.IdempotencyKey.Val, p.File.Val, anchorPattern)).AsOperational()
}

func ensureBlock(content string, p *manifest.PatchOp, vars map[string]any) (string, bool, error) {
	blockText, err := tmplString(p.Content, vars)
	if err != nil {
		return "", false, err
	}
	begin, end := manifest.BeginMarker(*p.Marker), manifest.EndMarker(*p.Marker)
	desired := begin + "\n" + blockText + "\n" + end

	start, stop, ok := findBlock(content, begin, end)
	if !ok {
		sep := ""
		if content != "" && !strings.HasSuffix(content, "\n") {
			sep = "\n"
		}
		return content + sep + desired + "\n", true, nil
	}

	existing := content[start:stop]
	if existing == desired {
		return content, false, nil
	}
	return content[:start] + desired + content[stop:], true, nil
}

func appendIfMissing(content string, p *manifest.PatchOp, vars map[string]any) (string, bool, error) {
	blockText, err := tmplString(p.Content, vars)
	if err != nil {
		return "", false, err
	}
	if strings.Contains(content, blockText) {
		return content, false, nil
	}
	sep := ""
	if content != "" && !strings.HasSuffix(content, "\n") {
		sep = "\n"
	}
	return content + sep + blockText + "\n", true, nil
}

func deleteBlock(content string, p *manifest.PatchOp) (string, bool) {
	begin, end := manifest.BeginMarker(*p.Marker), manifest.EndMarker(*p.Marker)
	start, stop, ok := findBlock(content, begin, end)
	if !ok {
		return content, false
	}
	// Also consume a single trailing newline left by the block, and a
	// leading newline before `begin`, so repeated delete/ensure cycles
	// don't accumulate blank lines.
	lineStart := start
	if lineStart > 0 && content[lineStart-1] == '\n' {
		lineStart--
	}
	lineEnd := stop
	if lineEnd < len(content) && content[lineEnd] == '\n' {
		lineEnd++
	}
	return content[:lineStart] + content[lineEnd:], true
}

// findBlock locates the byte range [start, stop) covering a begin/end
// marker pair and everything between, inclusive of both marker lines.
func findBlock(content, begin, end string) (start, stop int, ok bool) {
	bi := strings.Index(content, begin)
	if bi == -1 {
		return 0, 0, false
	}
	ei := strings.Index(content[bi:], end)
	if ei == -1 {
		return 0, 0, false
	}
	stop = bi + ei + len(end)
	return bi, stop, true
}

func tmplString(src string, vars map[string]any) (string, error) {
	t, err := template.New("").Funcs(render.FuncMap()).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("compiling patch template %q: %w", src, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("executing patch template %q: %w", src, err)
	}
	return sb.String(), nil
}

func joinRoot(root, rel string) string {
	if root == "" {
		return rel
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(rel, "/")
}

func unifiedDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	return dmp.DiffPrettyText(diffs)
}
