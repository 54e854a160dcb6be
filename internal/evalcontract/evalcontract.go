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

// Package evalcontract compiles and runs CEL expressions against the
// resolved input scope, deterministically (same scope in, same value out)
// and without side effects. internal/input uses it to evaluate InputDef
// conditions.
package evalcontract

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Scope binds resolved input names to their values for CEL evaluation.
// Values are the typed results of input.Resolve (string, float64, or bool).
type Scope map[string]any

// celType maps a Go value's dynamic type to the CEL type CEL needs declared
// for that variable name.
func celType(v any) *cel.Type {
	switch v.(type) {
	case bool:
		return cel.BoolType
	case float64, int, int64:
		return cel.DoubleType
	default:
		return cel.StringType
	}
}

var extraFuncs = []cel.EnvOption{
	// matches(str, pattern) is a convenience wrapper around CEL's built-in
	// string.matches() method, provided as a free function so condition
	// expressions read naturally: matches(project_name, "^[a-z][a-z0-9-]*$")
	cel.Function(
		"matches",
		cel.Overload(
			"matches_string_string",
			[]*cel.Type{cel.StringType, cel.StringType},
			cel.BoolType,
			cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				str, ok := lhs.Value().(string)
				if !ok {
					return types.NewErr("internal error: first argument to matches() was %T, expected string", lhs.Value())
				}
				pattern, ok := rhs.Value().(string)
				if !ok {
					return types.NewErr("internal error: second argument to matches() was %T, expected string", rhs.Value())
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return types.NewErr("matches(): invalid regular expression %q: %s", pattern, err)
				}
				return types.Bool(re.MatchString(str))
			}),
		),
	),
}

// Eval compiles and evaluates expr against scope, writing the result into
// outPtr (which must be a pointer; e.g. a *bool for a condition).
func Eval(scope Scope, expr string, outPtr any) error {
	prog, err := compile(scope, expr)
	if err != nil {
		return err
	}
	return run(scope, prog, outPtr)
}

func compile(scope Scope, expr string) (cel.Program, error) {
	opts := make([]cel.EnvOption, 0, len(scope)+len(extraFuncs))
	for name, val := range scope {
		opts = append(opts, cel.Variable(name, celType(val)))
	}
	opts = append(opts, extraFuncs...)

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("configuring CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if err := issues.Err(); err != nil {
		return nil, fmt.Errorf("compiling CEL expression %q: %w", expr, err)
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("constructing CEL program for %q: %w", expr, err)
	}
	return prog, nil
}

func run(scope Scope, prog cel.Program, outPtr any) error {
	out, _, err := prog.Eval(map[string]any(scope))
	if err != nil {
		return fmt.Errorf("executing CEL expression: %w", err)
	}

	outVal := reflect.ValueOf(outPtr)
	if outVal.Kind() != reflect.Pointer {
		return fmt.Errorf("internal error: evalcontract.Eval requires a pointer, got %s", outVal.Kind())
	}
	elem := outVal.Elem()

	native, err := out.ConvertToNative(elem.Type())
	if err != nil {
		return fmt.Errorf("CEL expression result couldn't be converted to %s: %w", elem.Type(), err)
	}
	elem.Set(reflect.ValueOf(native))
	return nil
}
