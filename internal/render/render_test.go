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
	"path/filepath"
	"testing"

	"github.com/abcxyz/pkg/testutil"
	"github.com/google/go-cmp/cmp"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/fsutil"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	dirtestutil "github.com/marcusPrado02/scaffoldix-sub001/testutil"
)

func writeTemplateTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	dirtestutil.WriteAllDefaultMode(t, root, files)
}

func TestRender(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTemplateTree(t, root, map[string]string{
		"README.md": "# {{.ServiceName}}\n",
		"__service_name__/main.go.tmpl": "package {{toLowerSnakeCase .ServiceName}}\n",
		"assets/logo.bin":                "\x00\x01binarydata",
	})

	plan, err := Render(&Params{
		FS:           &fsutil.RealFS{},
		TemplateRoot: root,
		RenameRules: []*manifest.RenameRule{
			{From: model.S("__service_name__"), To: model.S(`{{toLowerHyphenCase .ServiceName}}`)},
		},
		Inputs: map[string]any{"ServiceName": "Order Service"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	byPath := map[string]PlannedFile{}
	for _, f := range plan.Files {
		byPath[f.RelPath] = f
	}

	readme, ok := byPath["README.md"]
	if !ok {
		t.Fatalf("expected README.md in plan, got %v", keysOf(byPath))
	}
	if diff := cmp.Diff(string(readme.Content), "# Order Service\n"); diff != "" {
		t.Errorf("README.md contents (-got +want): %s", diff)
	}

	renamedDir, ok := byPath[filepath.Join("order-service", "main.go.tmpl")]
	if !ok {
		t.Fatalf("expected renamed directory segment in plan, got %v", keysOf(byPath))
	}
	if diff := cmp.Diff(string(renamedDir.Content), "package order_service\n"); diff != "" {
		t.Errorf("main.go.tmpl contents (-got +want): %s", diff)
	}

	asset, ok := byPath["assets/logo.bin"]
	if !ok {
		t.Fatalf("expected assets/logo.bin in plan, got %v", keysOf(byPath))
	}
	if !asset.Binary {
		t.Error("expected logo.bin to be detected as binary")
	}
}

func TestRenderUndefinedInput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTemplateTree(t, root, map[string]string{"main.txt": "{{.Missing}}"})

	_, err := Render(&Params{FS: &fsutil.RealFS{}, TemplateRoot: root, Inputs: map[string]any{}})
	if diff := testutil.DiffErrString(err, "UNKNOWN_TEMPLATE_VARIABLE"); diff != "" {
		t.Error(diff)
	}
}

func TestRenderDeterministicOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTemplateTree(t, root, map[string]string{
		"z.txt": "z", "a.txt": "a", "m.txt": "m",
	})

	plan, err := Render(&Params{FS: &fsutil.RealFS{}, TemplateRoot: root, Inputs: map[string]any{}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var order []string
	for _, f := range plan.Files {
		order = append(order, f.RelPath)
	}
	want := []string{"a.txt", "m.txt", "z.txt"}
	if diff := cmp.Diff(order, want); diff != "" {
		t.Errorf("file order (-got +want): %s", diff)
	}
}

func keysOf(m map[string]PlannedFile) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
