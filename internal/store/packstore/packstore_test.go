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

package packstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/registrystore"
)

func newPaths(t *testing.T) Paths {
	t.Helper()
	home := t.TempDir()
	return Paths{
		PacksDir:     filepath.Join(home, "packs"),
		RegistryFile: filepath.Join(home, "registry.json"),
	}
}

func writeSrcPack(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "archetype.yaml"), []byte("pack:\n  name: acme\n"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestStorePathIsSanitizedAndContentAddressed(t *testing.T) {
	t.Parallel()

	paths := Paths{PacksDir: "/home/packs"}
	got := paths.StorePath("acme/widgets", "h1:abc123")
	if diff := cmp.Diff(got, filepath.Join("/home/packs", fsutil.Sanitize("acme/widgets"), fsutil.Sanitize("h1:abc123"))); diff != "" {
		t.Error(diff)
	}
}

func TestInstallThenIdempotentReinstall(t *testing.T) {
	t.Parallel()

	rfs := &fsutil.RealFS{}
	paths := newPaths(t)
	mc := clock.NewMock()
	reg := &registrystore.Registry{SchemaVersion: registrystore.SchemaVersion, Packs: map[string]*registrystore.PackEntry{}}
	src := writeSrcPack(t)

	res1, err := Install(rfs, mc, paths, reg, "acme/widgets", "1.0.0", "h1:abc", src, "local")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if res1.AlreadyInstalled {
		t.Error("first Install should not report AlreadyInstalled")
	}
	if _, err := os.Stat(filepath.Join(res1.StorePath, "archetype.yaml")); err != nil {
		t.Errorf("expected the manifest to be copied into the store: %v", err)
	}

	res2, err := Install(rfs, mc, paths, reg, "acme/widgets", "1.0.0", "h1:abc", src, "local")
	if err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if !res2.AlreadyInstalled {
		t.Error("second Install of the same (packID, manifestHash) should report AlreadyInstalled")
	}
	if diff := cmp.Diff(res2.StorePath, res1.StorePath); diff != "" {
		t.Error(diff)
	}

	installs := registrystore.GetPackInstalls(reg, "acme/widgets", "1.0.0")
	if diff := cmp.Diff(len(installs), 2); diff != "" {
		t.Errorf("expected both installs to be recorded even though the second is a no-op on disk (-got +want): %s", diff)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	rfs := &fsutil.RealFS{}
	paths := newPaths(t)
	mc := clock.NewMock()
	reg := &registrystore.Registry{SchemaVersion: registrystore.SchemaVersion, Packs: map[string]*registrystore.PackEntry{}}
	src := writeSrcPack(t)

	res, err := Install(rfs, mc, paths, reg, "acme/widgets", "1.0.0", "h1:abc", src, "local")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	removed, err := Remove(rfs, mc, paths, reg, "acme/widgets", "1.0.0", "h1:abc")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("expected Remove to report true for a registered version")
	}
	if _, err := os.Stat(res.StorePath); !os.IsNotExist(err) {
		t.Errorf("expected the store directory to be deleted, stat err = %v", err)
	}

	removedAgain, err := Remove(rfs, mc, paths, reg, "acme/widgets", "1.0.0", "h1:abc")
	if err != nil {
		t.Fatalf("Remove (again): %v", err)
	}
	if removedAgain {
		t.Error("expected Remove on an already-removed version to report false")
	}
}

func TestLoadSaveRegistryRoundTrip(t *testing.T) {
	t.Parallel()

	rfs := &fsutil.RealFS{}
	paths := newPaths(t)

	reg, err := LoadRegistry(rfs, paths)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	reg.Packs["acme/widgets"] = &registrystore.PackEntry{PackID: "acme/widgets", Versions: map[string]*registrystore.VersionEntry{}}

	if err := SaveRegistry(rfs, paths, reg); err != nil {
		t.Fatalf("SaveRegistry: %v", err)
	}

	reloaded, err := LoadRegistry(rfs, paths)
	if err != nil {
		t.Fatalf("LoadRegistry (after save): %v", err)
	}
	if _, ok := reloaded.Packs["acme/widgets"]; !ok {
		t.Error("expected acme/widgets to survive the save/load round trip")
	}
}
