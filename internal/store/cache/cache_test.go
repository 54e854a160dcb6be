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

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
)

func TestGetMissOnEmptyCache(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	_, ok, err := c.Get("acme/widgets", "h1:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss on an empty cache")
	}
}

func TestSetThenGetHit(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	entry := &Entry{
		PackID:       "acme/widgets",
		ManifestHash: "h1:abc",
		PackVersion:  "1.0.0",
		Archetypes:   []ArchetypeSummary{{ID: "service", InputNames: []string{"ServiceName"}}},
	}
	if err := c.Set(entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get("acme/widgets", "h1:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if diff := cmp.Diff(got, entry); diff != "" {
		t.Errorf("Get() (-got +want): %s", diff)
	}
}

func TestGetStaleHashIsMiss(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	if err := c.Set(&Entry{PackID: "acme/widgets", ManifestHash: "h1:old"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, ok, err := c.Get("acme/widgets", "h1:new")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss when the requested hash doesn't match the cached one")
	}
}

func TestGetCorruptFileIsMissNotError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(&fsutil.RealFS{}, dir)
	p := c.path("acme/widgets", "h1:abc")
	if err := os.MkdirAll(filepath.Dir(p), fsutil.OwnerRWXPerms); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("not json"), fsutil.OwnerRWPerms); err != nil {
		t.Fatal(err)
	}

	_, ok, err := c.Get("acme/widgets", "h1:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a corrupt cache file to be reported as a miss")
	}
}

func TestSetReplacesLastWriterWins(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	if err := c.Set(&Entry{PackID: "acme/widgets", ManifestHash: "h1:abc", PackVersion: "1.0.0"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(&Entry{PackID: "acme/widgets", ManifestHash: "h1:abc", PackVersion: "2.0.0"}); err != nil {
		t.Fatalf("Set (second): %v", err)
	}

	got, ok, err := c.Get("acme/widgets", "h1:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if diff := cmp.Diff(got.PackVersion, "2.0.0"); diff != "" {
		t.Error(diff)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	if err := c.Set(&Entry{PackID: "acme/widgets", ManifestHash: "h1:abc"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := c.Invalidate("acme/widgets"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, ok, err := c.Get("acme/widgets", "h1:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss after Invalidate")
	}
}

func TestInvalidateOnMissingPackIsNoop(t *testing.T) {
	t.Parallel()

	c := New(&fsutil.RealFS{}, t.TempDir())
	if err := c.Invalidate("never/installed"); err != nil {
		t.Fatalf("Invalidate on a never-cached pack: %v", err)
	}
}
