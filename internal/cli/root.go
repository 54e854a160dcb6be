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

// Package cli implements the scaffoldix command tree: "pack" (install,
// list, versions), "generate", "archetypes list", and "state show". It is
// the only package that touches os.Stdin/os.Stdout/color output directly;
// everything else is called through internal/orchestrator and friends.
package cli

import (
	"github.com/abcxyz/pkg/cli"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/version"
)

// RootCommand builds the top-level "scaffoldix" command tree.
func RootCommand() *cli.RootCommand {
	return &cli.RootCommand{
		Name:    version.Name,
		Version: version.HumanVersion,
		Commands: map[string]cli.CommandFactory{
			"pack": func() cli.Command {
				return &cli.RootCommand{
					Name:        "pack",
					Description: "subcommands for installing and inspecting packs",
					Commands: map[string]cli.CommandFactory{
						"install":  func() cli.Command { return &PackInstallCommand{} },
						"list":     func() cli.Command { return &PackListCommand{} },
						"versions": func() cli.Command { return &PackVersionsCommand{} },
					},
				}
			},
			"generate": func() cli.Command { return &GenerateCommand{} },
			"archetypes": func() cli.Command {
				return &cli.RootCommand{
					Name:        "archetypes",
					Description: "subcommands for discovering installed archetypes",
					Commands: map[string]cli.CommandFactory{
						"list": func() cli.Command { return &ArchetypesListCommand{} },
					},
				}
			},
			"state": func() cli.Command {
				return &cli.RootCommand{
					Name:        "state",
					Description: "subcommands for inspecting a generated project's history",
					Commands: map[string]cli.CommandFactory{
						"show": func() cli.Command { return &StateShowCommand{} },
					},
				}
			},
		},
	}
}
