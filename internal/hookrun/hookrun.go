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

// Package hookrun executes an archetype's postGenerate hooks and checks
// commands via the shell, the same os/exec.CommandContext idiom used
// elsewhere in the engine for shelling out to git (internal/gitfetch).
package hookrun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// Result is one command's outcome.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Run executes command (via "sh -c") with cwd as its working directory,
// capturing stdout/stderr rather than streaming them, so trace output can
// include them verbatim on failure.
func Run(ctx context.Context, cwd, command string) Result {
	started := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	res := Result{Command: command, Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(started)}
	if err != nil {
		res.Err = scaffolderr.New(scaffolderr.CategoryHook, "HOOK_COMMAND_FAILED",
			fmt.Sprintf("command %q failed: %s\nstdout: %s\nstderr: %s", command, err, stdout.String(), stderr.String())).AsOperational()
	}
	return res
}

// RunAll runs each command in cwd, in order, stopping at the first failure
// and returning every result gathered so far (including the failing one).
func RunAll(ctx context.Context, cwd string, commands []string) ([]Result, error) {
	results := make([]Result, 0, len(commands))
	for _, c := range commands {
		res := Run(ctx, cwd, c)
		results = append(results, res)
		if res.Err != nil {
			return results, res.Err
		}
	}
	return results, nil
}
