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

// Package input resolves an archetype's declared inputs from flag-provided
// values, interactive prompts, and defaults, in the order the archetype
// declares them — so a later input's condition can depend on an earlier
// input's resolved value.
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/abcxyz/pkg/sets"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/maps"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/evalcontract"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/model/manifest"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

// PromptAdapter prints a message and reads back the user's answer. It's
// implemented by the CLI presentation layer (internal/cli), so this
// package never touches os.Stdin/os.Stdout directly.
type PromptAdapter interface {
	Prompt(ctx context.Context, msg string) (string, error)
	Stdin() io.Reader
}

// ResolveParams bundles Resolve's parameters.
type ResolveParams struct {
	Archetype *manifest.Archetype

	// Values are the input values already supplied on the command line
	// (--input name=value, repeated). Highest precedence.
	Values map[string]string

	// Interactive enables prompting for any input not supplied in Values;
	// an empty answer falls back to the input's default. When false,
	// unsupplied inputs take their default.
	Interactive bool

	Prompter           PromptAdapter
	SkipPromptTTYCheck bool // for tests: bypass the "stdin must be a TTY" check
}

// Resolve returns the fully resolved input values for rp.Archetype, typed
// per each InputDef's declared type (string, float64, bool), keyed by input
// name. Inputs gated out by an unsatisfied condition are omitted from the
// result entirely, not merely left zero.
func Resolve(ctx context.Context, rp *ResolveParams) (map[string]any, error) {
	if err := checkUnknownValues(rp.Archetype, rp.Values); err != nil {
		return nil, err
	}

	if rp.Interactive && !rp.SkipPromptTTYCheck {
		isATTY := rp.Prompter != nil && rp.Prompter.Stdin() == os.Stdin && isatty.IsTerminal(os.Stdin.Fd())
		if !isATTY {
			return nil, scaffolderr.New(scaffolderr.CategoryInput, "STDIN_NOT_A_TTY",
				"interactive input was requested, but standard input is not a terminal").AsOperational()
		}
	}

	resolved := map[string]any{}

	for _, def := range rp.Archetype.Inputs {
		if def.Condition != nil && !conditionSatisfied(def.Condition, resolved) {
			continue
		}

		raw, present := rp.Values[def.Name.Val]
		switch {
		case present:
			// explicit flag value, highest precedence
		case rp.Interactive:
			prompted, err := promptFor(ctx, rp.Prompter, def)
			if err != nil {
				return nil, err
			}
			raw, present = prompted, prompted != ""
			if !present && def.Default != nil {
				raw, present = def.Default.Val, true
			}
		case def.Default != nil:
			raw, present = def.Default.Val, true
		}

		if !present {
			if def.Required.Val {
				return nil, scaffolderr.New(scaffolderr.CategoryInput, "INPUT_REQUIRED",
					fmt.Sprintf("missing required input %q", def.Name.Val)).AsOperational()
			}
			continue
		}

		val, err := convertAndValidate(def, raw)
		if err != nil {
			return nil, err
		}
		resolved[def.Name.Val] = val
	}

	return resolved, nil
}

func checkUnknownValues(a *manifest.Archetype, values map[string]string) error {
	known := make([]string, 0, len(a.Inputs))
	for _, def := range a.Inputs {
		known = append(known, def.Name.Val)
	}
	unknown := sets.Subtract(maps.Keys(values), known)
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return scaffolderr.New(scaffolderr.CategoryUsage, "UNKNOWN_INPUT",
		fmt.Sprintf("unknown input(s) for archetype %q: %s", a.ID.Val, strings.Join(unknown, ", "))).AsOperational()
}

// conditionSatisfied evaluates c against the inputs resolved so far, using
// the CEL contract in internal/evalcontract rather than a hand-rolled
// comparison, so condition semantics (type coercion, operators) stay in one
// place.
func conditionSatisfied(c *manifest.InputCondition, resolved map[string]any) bool {
	got, ok := resolved[c.Input.Val]
	if !ok {
		return false
	}

	var expr string
	switch got.(type) {
	case bool, float64:
		expr = fmt.Sprintf("%s == %s", c.Input.Val, c.Equals.Val)
	default:
		expr = fmt.Sprintf("%s == %q", c.Input.Val, c.Equals.Val)
	}

	var satisfied bool
	if err := evalcontract.Eval(evalcontract.Scope{c.Input.Val: got}, expr, &satisfied); err != nil {
		return false
	}
	return satisfied
}

// promptFor asks the user for def's value. A cancelled prompt — the context
// was cancelled (e.g. Ctrl+C) or stdin was closed (Ctrl+D) before an answer
// was given — surfaces as USER_CANCELLED, propagated verbatim per §5's "no
// side effects have yet occurred" invariant, rather than a generic wrapped
// error indistinguishable from an I/O failure.
func promptFor(ctx context.Context, p PromptAdapter, def *manifest.InputDef) (string, error) {
	msg := def.Prompt.Val
	if msg == "" {
		msg = def.Description.Val
	}
	if msg == "" {
		msg = fmt.Sprintf("Enter a value for %q", def.Name.Val)
	}
	answer, err := p.Prompt(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return "", scaffolderr.New(scaffolderr.CategoryInput, "USER_CANCELLED",
				fmt.Sprintf("input %q was cancelled before a value was given", def.Name.Val)).AsOperational()
		}
		return "", fmt.Errorf("prompting for input %q: %w", def.Name.Val, err)
	}
	return strings.TrimSpace(answer), nil
}

// convertAndValidate parses raw according to def's declared type and
// applies its type-specific constraints, returning the first violated
// constraint's message.
func convertAndValidate(def *manifest.InputDef, raw string) (any, error) {
	switch manifest.InputType(def.Type.Val) {
	case manifest.InputString:
		return raw, validateString(def, raw)
	case manifest.InputNumber:
		return validateNumber(def, raw)
	case manifest.InputBoolean:
		return validateBoolean(def, raw)
	case manifest.InputEnum:
		return raw, validateEnum(def, raw)
	default:
		return raw, nil
	}
}

func validateString(def *manifest.InputDef, val string) error {
	if def.MinLength != nil && len(val) < *def.MinLength {
		return inputErr(def, def.Messages, "minLength", fmt.Sprintf("value must be at least %d characters", *def.MinLength))
	}
	if def.MaxLength != nil && len(val) > *def.MaxLength {
		return inputErr(def, def.Messages, "maxLength", fmt.Sprintf("value must be at most %d characters", *def.MaxLength))
	}
	if def.Regex != nil {
		re, err := regexp.Compile(*def.Regex)
		if err != nil {
			return def.Pos.Errorf("input %q has an invalid regex: %w", def.Name.Val, err)
		}
		if !re.MatchString(val) {
			return inputErr(def, def.Messages, "regex", fmt.Sprintf("value must match pattern %q", *def.Regex))
		}
	}
	return nil
}

func validateNumber(def *manifest.InputDef, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, inputErr(def, def.Messages, "type", "value must be a number")
	}
	if def.Integer && f != float64(int64(f)) {
		return 0, inputErr(def, def.Messages, "integer", "value must be an integer")
	}
	if def.Min != nil && f < *def.Min {
		return 0, inputErr(def, def.Messages, "min", fmt.Sprintf("value must be >= %v", *def.Min))
	}
	if def.Max != nil && f > *def.Max {
		return 0, inputErr(def, def.Messages, "max", fmt.Sprintf("value must be <= %v", *def.Max))
	}
	return f, nil
}

func validateBoolean(def *manifest.InputDef, val string) (bool, error) {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, inputErr(def, def.Messages, "type", `value must be "true" or "false"`)
	}
	return b, nil
}

func validateEnum(def *manifest.InputDef, val string) error {
	for _, opt := range def.Options {
		if opt.Value.Val == val {
			return nil
		}
	}
	choices := make([]string, len(def.Options))
	for i, opt := range def.Options {
		choices[i] = opt.Value.Val
	}
	return inputErr(def, def.Messages, "options", fmt.Sprintf("value must be one of %v", choices))
}

// inputErr prefers a message authored by the pack (def.Messages[key]) over
// the engine's generic one, so packs can give domain-specific guidance.
func inputErr(def *manifest.InputDef, messages map[string]string, key, fallback string) error {
	msg := fallback
	if messages != nil {
		if custom, ok := messages[key]; ok && custom != "" {
			msg = custom
		}
	}
	return scaffolderr.New(scaffolderr.CategoryInput, "INPUT_VALIDATION_FAILED",
		fmt.Sprintf("input %q: %s", def.Name.Val, msg)).AsOperational()
}
