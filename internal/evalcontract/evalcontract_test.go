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

package evalcontract

import (
	"testing"

	"github.com/abcxyz/pkg/testutil"
)

func TestEvalBoolCondition(t *testing.T) {
	t.Parallel()

	scope := Scope{"UseDocker": true, "Replicas": 3.0}

	var got bool
	if err := Eval(scope, "UseDocker && Replicas > 1.0", &got); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Error("expected condition to evaluate true")
	}
}

func TestEvalMatchesFunc(t *testing.T) {
	t.Parallel()

	scope := Scope{"ProjectName": "order-service"}

	var got bool
	if err := Eval(scope, `matches(ProjectName, "^[a-z][a-z0-9-]*$")`, &got); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Error("expected ProjectName to match the naming pattern")
	}

	var got2 bool
	if err := Eval(scope, `matches(ProjectName, "^[A-Z]")`, &got2); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got2 {
		t.Error("expected ProjectName not to match an uppercase-leading pattern")
	}
}

func TestEvalCompileError(t *testing.T) {
	t.Parallel()

	var out bool
	err := Eval(Scope{"X": true}, "X &&& Y", &out)
	if diff := testutil.DiffErrString(err, "compiling CEL expression"); diff != "" {
		t.Error(diff)
	}
}

func TestEvalUndeclaredVariable(t *testing.T) {
	t.Parallel()

	var out bool
	err := Eval(Scope{}, "Undeclared", &out)
	if err == nil {
		t.Fatal("expected an error referencing an undeclared variable")
	}
}

func TestEvalRequiresPointer(t *testing.T) {
	t.Parallel()

	var out bool
	err := Eval(Scope{"X": true}, "X", out)
	if diff := testutil.DiffErrString(err, "requires a pointer"); diff != "" {
		t.Error(diff)
	}
}
