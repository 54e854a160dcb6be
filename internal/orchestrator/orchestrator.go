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

// Package orchestrator runs the 13-phase transactional generation
// pipeline described in SPEC_FULL.md §4.15: parse a pack reference,
// resolve and load its manifest, resolve inputs, render a plan, detect
// conflicts, write files, apply patches, run hooks/checks, and record
// project state — each phase timestamped into a Trace.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/compat"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/conflict"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/hookrun"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/input"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/manifestload"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/patch"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/render"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/state"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/cache"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/packstore"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/registrystore"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/resolver"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/trace"
)

// Deps are the orchestrator's external dependencies, analogous to the
// teacher's RenderCommand fields for FS/getter/clock injection.
type Deps struct {
	FS            fsutil.FS
	Clock         clock.Clock
	Paths         packstore.Paths
	EngineVersion string
	Prompter      input.PromptAdapter
}

// Params are one generate invocation's parameters.
type Params struct {
	// Ref is "packId[:version]:archetypeId".
	Ref string

	TargetDir      string
	DryRun         bool
	Force          bool
	NonInteractive bool

	// Values are explicit --input name=value flag values.
	Values map[string]string
}

// Result is everything Generate produces.
type Result struct {
	FilesPlanned            []string
	FilesWritten            []string
	PatchReport             *patch.Summary
	PatchesSkippedForDryRun bool
	Trace                   *trace.Trace

	// BackupDir is where pre-existing files were copied before being
	// overwritten under --force. Empty if nothing was overwritten.
	BackupDir string
}

// Generate runs the full 13-phase pipeline.
func Generate(ctx context.Context, deps Deps, p Params) (*Result, error) {
	t := trace.New(deps.Clock)
	res := &Result{Trace: t}

	// Phase 1: parse ref.
	t.Start("parse_ref", p.Ref)
	packID, version, archetypeID, err := parseRef(p.Ref)
	t.End("parse_ref")
	if err != nil {
		return res, err
	}

	// Phase 2: resolve pack.
	t.Start("resolve_pack", packID)
	reg, err := packstore.LoadRegistry(deps.FS, deps.Paths)
	if err != nil {
		t.End("resolve_pack")
		return res, fmt.Errorf("loading registry: %w", err)
	}
	resolvedVersion, err := resolver.Resolve(reg, resolver.PackRef{PackID: packID, Constraint: version})
	t.End("resolve_pack")
	if err != nil {
		return res, err
	}

	// Phase 3: derive store path.
	t.Start("derive_store_path", "")
	pe := registrystore.GetPack(reg, packID)
	if pe == nil {
		t.End("derive_store_path")
		return res, scaffolderr.New(scaffolderr.CategoryStore, "PACK_NOT_FOUND",
			fmt.Sprintf("pack %q is not installed", packID)).AsOperational()
	}
	ve := pe.Versions[resolvedVersion]
	storePath := ve.StorePath
	if storePath == "" && len(ve.Installs) > 0 {
		storePath = ve.Installs[len(ve.Installs)-1].StorePath
	}
	exists, err := fsutil.ExistsFS(deps.FS, storePath)
	t.End("derive_store_path")
	if err != nil {
		return res, fmt.Errorf("checking store path %s: %w", storePath, err)
	}
	if !exists {
		return res, scaffolderr.New(scaffolderr.CategoryStore, "PACK_STORE_MISSING",
			fmt.Sprintf("installed pack %s@%s is missing from the store at %s", packID, resolvedVersion, storePath)).
			WithHint("reinstall the pack with `scaffoldix pack install`").AsOperational()
	}

	// Phase 4: load manifest.
	t.Start("load_manifest", storePath)
	loaded, err := manifestload.Load(deps.FS, storePath)
	if err != nil {
		t.End("load_manifest")
		return res, err
	}
	if err := compat.Check(loaded.Manifest.Pack.EngineCompatibility, deps.EngineVersion, packID, resolvedVersion); err != nil {
		t.End("load_manifest")
		return res, err
	}
	t.End("load_manifest")

	// Phase 5: select archetype.
	t.Start("select_archetype", archetypeID)
	arch, err := manifestload.FindArchetype(loaded.Manifest, archetypeID)
	t.End("select_archetype")
	if err != nil {
		return res, err
	}

	// Phase 6: validate template dir.
	t.Start("validate_template_dir", "")
	templateDir := filepath.Join(storePath, arch.TemplateRoot.Val)
	info, err := deps.FS.Stat(templateDir)
	t.End("validate_template_dir")
	if err != nil || !info.IsDir() {
		return res, scaffolderr.New(scaffolderr.CategoryManifest, "TEMPLATE_DIR_NOT_FOUND",
			fmt.Sprintf("archetype %q's templateRoot %q is not a directory", archetypeID, arch.TemplateRoot.Val)).AsOperational()
	}

	// Phase 7: resolve inputs.
	t.Start("resolve_inputs", "")
	inputs, err := input.Resolve(ctx, &input.ResolveParams{
		Archetype:   arch,
		Values:      p.Values,
		Interactive: !p.NonInteractive,
		Prompter:    deps.Prompter,
	})
	t.End("resolve_inputs")
	if err != nil {
		return res, err
	}

	// Phase 8: render plan.
	t.Start("render_plan", "")
	plan, err := render.Render(&render.Params{
		FS:           deps.FS,
		TemplateRoot: templateDir,
		RenameRules:  arch.RenameRules,
		Inputs:       inputs,
	})
	t.End("render_plan")
	if err != nil {
		return res, err
	}
	for _, f := range plan.Files {
		res.FilesPlanned = append(res.FilesPlanned, f.RelPath)
	}

	// Phase 9: detect conflicts.
	t.Start("detect_conflicts", "")
	decisions, err := conflict.Detect(deps.FS, p.TargetDir, plan)
	t.End("detect_conflicts")
	if err != nil {
		return res, err
	}
	modified := conflict.Modified(decisions)
	if len(modified) > 0 && !p.Force && !p.DryRun {
		return res, buildConflictErr(modified)
	}

	// Phase 10: write files.
	if !p.DryRun {
		t.Start("write_files", "")
		modifiedPaths := make(map[string]bool, len(modified))
		for _, d := range modified {
			modifiedPaths[d.RelPath] = true
		}
		if len(modifiedPaths) > 0 {
			res.BackupDir = filepath.Join(deps.Paths.BackupsDir, fmt.Sprint(deps.Clock.Now().UTC().Unix()))
			for relPath := range modifiedPaths {
				if err := backupFile(deps.FS, p.TargetDir, res.BackupDir, relPath); err != nil {
					t.End("write_files")
					return res, fmt.Errorf("backing up %s before overwrite: %w", relPath, err)
				}
			}
		}
		written, err := writeFiles(deps.FS, p.TargetDir, plan)
		t.End("write_files")
		if err != nil {
			return res, err
		}
		res.FilesWritten = written
	}

	// Phase 11: apply patches.
	if !p.DryRun {
		t.Start("apply_patches", "")
		summary, err := patch.ApplyAll(deps.FS, p.TargetDir, arch.Patches, inputs, true)
		t.End("apply_patches")
		res.PatchReport = &summary
		if err != nil {
			return res, scaffolderr.New(scaffolderr.CategoryPatch, "PATCH_APPLICATION_FAILED", err.Error()).
				WithDetail("failed", strings.Join(summary.Failed(), ",")).AsOperational()
		}
	} else {
		res.PatchesSkippedForDryRun = true
	}

	// Phase 12: run hooks and checks.
	if !p.DryRun && arch.Hooks != nil {
		t.Start("run_hooks", "")
		cmds := make([]string, len(arch.Hooks.PostGenerate))
		for i, c := range arch.Hooks.PostGenerate {
			cmds[i] = c.Val
		}
		_, err := hookrun.RunAll(ctx, p.TargetDir, cmds)
		t.End("run_hooks")
		if err != nil {
			return res, scaffolderr.New(scaffolderr.CategoryHook, "HOOK_EXECUTION_FAILED", err.Error()).AsOperational()
		}
	}
	if !p.DryRun && len(arch.Checks) > 0 {
		t.Start("run_checks", "")
		cmds := make([]string, len(arch.Checks))
		for i, c := range arch.Checks {
			cmds[i] = c.Val
		}
		_, err := hookrun.RunAll(ctx, p.TargetDir, cmds)
		t.End("run_checks")
		if err != nil {
			return res, scaffolderr.New(scaffolderr.CategoryHook, "CHECK_FAILED", err.Error()).AsOperational()
		}
	}

	// Phase 13: write project state.
	if !p.DryRun {
		t.Start("write_project_state", "")
		ps, err := state.Load(deps.FS, p.TargetDir)
		if err != nil {
			t.End("write_project_state")
			return res, fmt.Errorf("loading project state: %w", err)
		}
		state.Append(ps, state.GenerationRecord{
			Timestamp:      deps.Clock.Now().UTC(),
			PackID:         packID,
			PackVersion:    resolvedVersion,
			ManifestHash:   loaded.ManifestHash,
			ArchetypeID:    archetypeID,
			Inputs:         inputs,
			FilesWritten:   res.FilesWritten,
			PatchesApplied: res.PatchReport.Applied(),
			Status:         state.StatusCompleted,
		})
		err = state.Save(deps.FS, p.TargetDir, ps)
		t.End("write_project_state")
		if err != nil {
			return res, fmt.Errorf("saving project state: %w", err)
		}
	}

	return res, nil
}

func parseRef(ref string) (packID, version, archetypeID string, err error) {
	idx := strings.LastIndex(ref, ":")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", "", scaffolderr.New(scaffolderr.CategoryUsage, "INVALID_ARCHETYPE_REF",
			fmt.Sprintf("ref %q must be of the form packId[:version]:archetypeId", ref)).AsOperational()
	}
	archetypeID = ref[idx+1:]
	left := ref[:idx]

	packID = left
	if at := strings.LastIndex(left, ":"); at > 0 {
		packID, version = left[:at], left[at+1:]
	}
	if packID == "" || archetypeID == "" {
		return "", "", "", scaffolderr.New(scaffolderr.CategoryUsage, "INVALID_ARCHETYPE_REF",
			fmt.Sprintf("ref %q has an empty packId or archetypeId component", ref)).AsOperational()
	}
	return packID, version, archetypeID, nil
}

func buildConflictErr(modified []conflict.Decision) error {
	limit := modified
	if len(limit) > 10 {
		limit = limit[:10]
	}
	paths := make([]string, len(limit))
	for i, d := range limit {
		paths[i] = d.RelPath
	}
	e := scaffolderr.New(scaffolderr.CategoryConflict, "GENERATE_CONFLICT",
		fmt.Sprintf("generation would modify %d existing file(s): %s", len(modified), strings.Join(paths, ", "))).
		WithHint("pass --force to overwrite, or resolve the conflicts manually").AsOperational()
	if first := modified[0]; first.DiffPreview != "" {
		e = e.WithDetail("preview:"+first.RelPath, first.DiffPreview)
	}
	return e
}

// backupFile copies targetDir/relPath into backupDir/relPath before it gets
// overwritten, so a --force run never silently destroys uncommitted changes.
func backupFile(rfs fsutil.FS, targetDir, backupDir, relPath string) error {
	src := filepath.Join(targetDir, relPath)
	content, err := rfs.ReadFile(src)
	if err != nil {
		return fmt.Errorf("ReadFile(%s): %w", src, err)
	}
	dst := filepath.Join(backupDir, relPath)
	if err := fsutil.WriteAtomic(rfs, dst, content, fsutil.OwnerRWPerms); err != nil {
		return fmt.Errorf("writing backup %s: %w", dst, err)
	}
	return nil
}

func writeFiles(rfs fsutil.FS, targetDir string, plan *render.Plan) ([]string, error) {
	written := make([]string, 0, len(plan.Files))
	for _, f := range plan.Files {
		dest := filepath.Join(targetDir, f.RelPath)
		if err := fsutil.WriteAtomic(rfs, dest, f.Content, f.Mode); err != nil {
			return written, fmt.Errorf("writing %s: %w", dest, err)
		}
		written = append(written, f.RelPath)
	}
	return written, nil
}

// ListArchetypes loads every installed version's manifest and returns the
// archetype IDs it offers, tolerating (and reporting, rather than aborting
// on) any single pack whose manifest fails to load — "archetypes list"
// should be resilient to one broken pack among many installed ones.
type ArchetypeListing struct {
	PackID      string
	Version     string
	ArchetypeID string
}

// ListArchetypesResult separates what loaded successfully from what didn't.
type ListArchetypesResult struct {
	Archetypes []ArchetypeListing
	Errors     map[string]error // packID@version -> error
}

func ListArchetypes(rfs fsutil.FS, paths packstore.Paths) (*ListArchetypesResult, error) {
	reg, err := packstore.LoadRegistry(rfs, paths)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	idx := cache.New(rfs, paths.CacheDir)

	out := &ListArchetypesResult{Errors: map[string]error{}}
	for _, packID := range registrystore.ListPacks(reg) {
		pe := registrystore.GetPack(reg, packID)
		for version, ve := range pe.Versions {
			storePath := ve.StorePath
			if storePath == "" && len(ve.Installs) > 0 {
				storePath = ve.Installs[len(ve.Installs)-1].StorePath
			}

			summaries, err := archetypeSummaries(rfs, idx, packID, ve.ManifestHash, version, storePath)
			if err != nil {
				out.Errors[packID+"@"+version] = err
				continue
			}
			for _, s := range summaries {
				out.Archetypes = append(out.Archetypes, ArchetypeListing{
					PackID: packID, Version: version, ArchetypeID: s.ID,
				})
			}
		}
	}
	return out, nil
}

// archetypeSummaries returns packID@manifestHash's archetype index, from
// the on-disk cache when it's fresh, or by loading the manifest and
// populating the cache for next time when it isn't.
func archetypeSummaries(rfs fsutil.FS, idx *cache.Cache, packID, manifestHash, version, storePath string) ([]cache.ArchetypeSummary, error) {
	if entry, ok, err := idx.Get(packID, manifestHash); err == nil && ok {
		return entry.Archetypes, nil
	}

	loaded, err := manifestload.Load(rfs, storePath)
	if err != nil {
		return nil, err
	}

	summaries := make([]cache.ArchetypeSummary, len(loaded.Manifest.Archetypes))
	for i, a := range loaded.Manifest.Archetypes {
		names := make([]string, len(a.Inputs))
		for j, in := range a.Inputs {
			names[j] = in.Name.Val
		}
		summaries[i] = cache.ArchetypeSummary{ID: a.ID.Val, InputNames: names}
	}

	// Best-effort: a cache write failure shouldn't turn a successful list
	// into an error, since the cache is purely a derived, rebuildable
	// artifact.
	_ = idx.Set(&cache.Entry{
		PackID: packID, ManifestHash: manifestHash, PackVersion: version, Archetypes: summaries,
	})

	return summaries, nil
}
