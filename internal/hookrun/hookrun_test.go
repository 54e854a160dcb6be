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

package hookrun

import (
	"context"
	"testing"

	"github.com/abcxyz/pkg/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), t.TempDir(), "echo -n hello")
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if diff := cmp.Diff(res.Stdout, "hello"); diff != "" {
		t.Error(diff)
	}
}

func TestRunFailure(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), t.TempDir(), "exit 7")
	if diff := testutil.DiffErrString(res.Err, "HOOK_COMMAND_FAILED"); diff != "" {
		t.Error(diff)
	}
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	commands := []string{"echo first", "exit 1", "echo third"}

	results, err := RunAll(context.Background(), cwd, commands)
	if err == nil {
		t.Fatal("expected RunAll to return the failing command's error")
	}
	if diff := cmp.Diff(len(results), 2); diff != "" {
		t.Errorf("len(results) (-got +want): %s; results so far should stop at the failure, not run the third command", diff)
	}
}

func TestRunAllAllSucceed(t *testing.T) {
	t.Parallel()

	results, err := RunAll(context.Background(), t.TempDir(), []string{"true", "true"})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if diff := cmp.Diff(len(results), 2); diff != "" {
		t.Error(diff)
	}
}
