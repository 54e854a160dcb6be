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

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/store/packstore"
)

// defaultPaths mirrors the teacher's own "~/.abc/backups/..." convention
// (cmd/abc/abc.go) for where engine-owned state lives in the user's home
// directory.
func defaultPaths() (packstore.Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return packstore.Paths{}, fmt.Errorf("failed to get home dir: %w", err)
	}
	root := filepath.Join(home, ".scaffoldix")
	return packstore.Paths{
		PacksDir:     filepath.Join(root, "packs"),
		RegistryFile: filepath.Join(root, "registry.json"),
		CacheDir:     filepath.Join(root, "cache"),
		BackupsDir:   filepath.Join(root, "backups"),
	}, nil
}
