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

// Package scaffolderr defines the single error type used throughout the
// engine, so that every failure path carries a stable machine-readable code,
// a human message, an optional remediation hint, and a category that maps
// onto a CLI exit status range.
package scaffolderr

import (
	"errors"
	"fmt"
)

// Category groups error Codes into an exit-status range, per SPEC_FULL.md's
// error taxonomy.
type Category int

const (
	// CategoryUsage covers bad CLI invocation: unknown flags, malformed
	// pack references, missing required arguments. Exit codes 2-9.
	CategoryUsage Category = iota
	// CategoryInput covers invalid or missing input values, including
	// interactive prompt rejection. Exit codes 10-19.
	CategoryInput
	// CategoryManifest covers manifest parse/validate/hash failures.
	// Exit codes 20-29.
	CategoryManifest
	// CategoryCompat covers engine/pack compatibility mismatches. Exit
	// codes 30-39.
	CategoryCompat
	// CategoryConflict covers file conflicts the user didn't authorize
	// overwriting. Exit codes 40-49.
	CategoryConflict
	// CategoryPatch covers patch application failures in strict mode.
	// Exit codes 50-59.
	CategoryPatch
	// CategoryHook covers a failing post-generate hook or check command.
	// Exit codes 60-69.
	CategoryHook
	// CategoryStore covers pack store/registry/cache I/O failures.
	// Exit codes 70-79.
	CategoryStore
	// CategoryInternal covers anything that should never happen in
	// correct operation: a bug, not a user-facing condition. Exit codes
	// 90-99.
	CategoryInternal
)

// exitBase is the first exit code in each Category's range.
var exitBase = map[Category]int{
	CategoryUsage:     2,
	CategoryInput:     10,
	CategoryManifest:  20,
	CategoryCompat:    30,
	CategoryConflict:  40,
	CategoryPatch:     50,
	CategoryHook:      60,
	CategoryStore:     70,
	CategoryInternal:  90,
}

// Error is the single structured error type returned by every engine
// package. Operational indicates the failure is an expected, recoverable
// condition of normal operation (a missing input, a version mismatch) as
// opposed to a bug; it does not change how the error prints, only whether
// callers like an orchestrator retry loop should treat it as fatal.
type Error struct {
	Code        string
	Message     string
	Hint        string
	Details     map[string]string
	Category    Category
	Operational bool
	Cause       error
}

// New constructs an Error. Use the With* methods to attach optional fields.
func New(category Category, code, message string) *Error {
	return &Error{Category: category, Code: code, Message: message}
}

// Wrap constructs an Error that preserves cause in its Unwrap chain.
func Wrap(category Category, code string, cause error) *Error {
	return &Error{Category: category, Code: code, Message: cause.Error(), Cause: cause}
}

// WithHint attaches a remediation hint and returns e for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithDetail attaches a key/value detail and returns e for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// AsOperational marks the error as an expected condition of normal
// operation, rather than a bug, and returns e for chaining.
func (e *Error) AsOperational() *Error {
	e.Operational = true
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (hint: %s)", msg, e.Hint)
	}
	return msg
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// ExitCode computes the process exit code for an error, walking its chain
// with errors.As to find the outermost *Error. Unstructured errors get a
// generic internal exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return exitBase[se.Category]
	}
	return exitBase[CategoryInternal]
}

// Code pulls the structured Code off err, if any, for callers (like trace
// output) that want to display it without full error formatting.
func Code(err error) (string, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
