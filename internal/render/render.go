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

// Package render walks an archetype's template tree in deterministic
// (sorted) order and produces a render plan: the set of output files and
// their final bytes, with each text file's contents evaluated as a
// text/template and binary files passed through untouched. Nothing is
// written to disk here; internal/conflict and the orchestrator decide what
// to do with the plan.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/exp/maps"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// PlannedFile is one file the renderer decided to produce.
type PlannedFile struct {
	// RelPath is the file's path relative to the archetype's templateRoot,
	// after renameRules have been applied to its path segments.
	RelPath string
	Content []byte
	Mode    fs.FileMode
	// Binary is true if the file was detected as binary and copied through
	// without template evaluation.
	Binary bool
}

// Plan is the ordered, deterministic output of Render.
type Plan struct {
	Files []PlannedFile
}

// Params bundles Render's inputs.
type Params struct {
	FS           fsutil.FS
	TemplateRoot string // absolute path to the archetype's template tree
	RenameRules  []*manifest.RenameRule
	Inputs       map[string]any // resolved input values, from internal/input
}

// Render walks p.TemplateRoot in sorted order and produces a Plan.
func Render(p *Params) (*Plan, error) {
	vars := stringifyInputs(p.Inputs)
	tmpl, err := templateForVars(vars)
	if err != nil {
		return nil, err
	}

	var relPaths []string
	if err := fs.WalkDir(p.FS, p.TemplateRoot, func(path string, d fs.DirEntry, err error) error { //nolint:wrapcheck
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			rel, _ := filepath.Rel(p.TemplateRoot, path)
			return &fsutil.SymlinkForbiddenError{Path: rel}
		}
		rel, err := filepath.Rel(p.TemplateRoot, path)
		if err != nil {
			return fmt.Errorf("filepath.Rel(%s,%s): %w", p.TemplateRoot, path, err)
		}
		relPaths = append(relPaths, rel)
		return nil
	}); err != nil {
		return nil, err //nolint:wrapcheck
	}
	sort.Strings(relPaths)

	plan := &Plan{Files: make([]PlannedFile, 0, len(relPaths))}
	for _, rel := range relPaths {
		src := filepath.Join(p.TemplateRoot, rel)

		info, err := p.FS.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("Stat(%s): %w", src, err)
		}

		raw, err := p.FS.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("ReadFile(%s): %w", src, err)
		}

		outRel, err := renamePath(rel, p.RenameRules, vars)
		if err != nil {
			return nil, err
		}

		if looksBinary(raw) {
			plan.Files = append(plan.Files, PlannedFile{RelPath: outRel, Content: raw, Mode: info.Mode().Perm(), Binary: true})
			continue
		}

		rendered, err := executeTemplate(tmpl, rel, string(raw), vars)
		if err != nil {
			return nil, err
		}
		plan.Files = append(plan.Files, PlannedFile{RelPath: outRel, Content: []byte(rendered), Mode: info.Mode().Perm()})
	}

	return plan, nil
}

// stringifyInputs converts the typed input map into text/template's
// expected map[string]any, leaving values as their native Go type (bool,
// float64, string) so template conditionals like {{if .UseDocker}} work
// without string-comparison gymnastics.
func stringifyInputs(inputs map[string]any) map[string]any {
	if inputs == nil {
		return map[string]any{}
	}
	return maps.Clone(inputs)
}

func templateForVars(vars map[string]any) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).Option("missingkey=error").Parse("")
	if err != nil {
		return nil, fmt.Errorf("internal error constructing base template: %w", err)
	}
	return tmpl, nil
}

var templateKeyErrRegex = regexp.MustCompile(`map has no entry for key "([^"]*)"`)

// executeTemplate parses src as a text/template rooted at relPath (used only
// for error messages) and executes it against vars.
func executeTemplate(base *template.Template, relPath, src string, vars map[string]any) (string, error) {
	tmpl, err := base.Clone()
	if err != nil {
		return "", fmt.Errorf("cloning base template for %s: %w", relPath, err)
	}
	tmpl, err = tmpl.Parse(src)
	if err != nil {
		return "", fmt.Errorf("%s: error compiling as go-template: %w", relPath, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		if m := templateKeyErrRegex.FindStringSubmatch(err.Error()); m != nil {
			names := maps.Keys(vars)
			sort.Strings(names)
			return "", scaffolderr.New(scaffolderr.CategoryInput, "UNKNOWN_TEMPLATE_VARIABLE",
				fmt.Sprintf("%s: template references undefined input %q; available inputs: %v", relPath, m[1], names)).AsOperational()
		}
		return "", fmt.Errorf("%s: template.Execute() failed: %w", relPath, err)
	}
	return sb.String(), nil
}

// renamePath applies renameRules to each path segment of rel, templating
// each rule's "to" value against vars.
func renamePath(rel string, rules []*manifest.RenameRule, vars map[string]any) (string, error) {
	if len(rules) == 0 {
		return rel, nil
	}
	segments := strings.Split(rel, string(filepath.Separator))
	for i, seg := range segments {
		for _, r := range rules {
			if seg != r.From.Val {
				continue
			}
			replacement, err := executeSimpleTemplate(r.To.Val, vars)
			if err != nil {
				return "", r.Pos.Errorf("rendering renameRules entry %q: %w", r.From.Val, err)
			}
			seg = replacement
		}
		segments[i] = seg
	}
	return filepath.Join(segments...), nil
}

func executeSimpleTemplate(src string, vars map[string]any) (string, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("error compiling as go-template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("template.Execute() failed: %w", err)
	}
	return sb.String(), nil
}

// looksBinary applies the same "does the prefix contain a NUL byte"
// heuristic used by git and most scaffolding tools to distinguish text from
// binary content without relying on file extension.
func looksBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) != -1
}
