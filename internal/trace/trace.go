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

// Package trace records start/end timestamps for each phase of a
// generation run and renders them as human, detailed, or JSON views.
package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Phase is one recorded start/end pair. End is the zero time while the
// phase is still in progress.
type Phase struct {
	Name    string    `json:"name"`
	Context string    `json:"context,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end,omitempty"`
}

// Done reports whether the phase has an End timestamp.
func (p Phase) Done() bool { return !p.End.IsZero() }

// Duration returns End-Start, or zero if the phase hasn't ended.
func (p Phase) Duration() time.Duration {
	if !p.Done() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// Trace collects an ordered list of Phases for one generation run.
type Trace struct {
	clock  clock.Clock
	phases []*Phase
	byName map[string]*Phase
}

// New constructs an empty Trace. clk lets tests control recorded
// timestamps; production code passes clockutil.New().
func New(clk clock.Clock) *Trace {
	return &Trace{clock: clk, byName: map[string]*Phase{}}
}

// Start records the beginning of a named phase, with optional free-form
// context (e.g. the resolved pack ref). Starting the same name twice
// creates a second, independent Phase entry — re-entering a phase name is
// not expected, but it is not an error.
func (t *Trace) Start(name, context string) {
	p := &Phase{Name: name, Context: context, Start: t.clock.Now()}
	t.phases = append(t.phases, p)
	t.byName[name] = p
}

// End records the end of the most recently started phase with the given
// name. End without a matching Start is a no-op; a duplicate End (the
// phase already has an End timestamp) is also a no-op.
func (t *Trace) End(name string) {
	p, ok := t.byName[name]
	if !ok || p.Done() {
		return
	}
	p.End = t.clock.Now()
}

// Phases returns the recorded phases in start order.
func (t *Trace) Phases() []Phase {
	out := make([]Phase, len(t.phases))
	for i, p := range t.phases {
		out[i] = *p
	}
	return out
}

// Human renders one line per phase: "name: 12ms" or "name: in progress".
func (t *Trace) Human() string {
	var sb strings.Builder
	for _, p := range t.Phases() {
		if !p.Done() {
			fmt.Fprintf(&sb, "%s: in progress\n", p.Name)
			continue
		}
		fmt.Fprintf(&sb, "%s: %dms\n", p.Name, p.Duration().Milliseconds())
	}
	return sb.String()
}

// Detailed renders one line per phase including its context and absolute
// timestamps.
func (t *Trace) Detailed() string {
	var sb strings.Builder
	for _, p := range t.Phases() {
		status := "in progress"
		if p.Done() {
			status = fmt.Sprintf("%dms", p.Duration().Milliseconds())
		}
		ctx := p.Context
		if ctx == "" {
			ctx = "-"
		}
		fmt.Fprintf(&sb, "%-28s context=%-20s start=%s %s\n",
			p.Name, ctx, p.Start.Format(time.RFC3339Nano), status)
	}
	return sb.String()
}

// JSON renders the full phase list as indented JSON.
func (t *Trace) JSON() (string, error) {
	buf, err := json.MarshalIndent(t.Phases(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling trace: %w", err)
	}
	return string(buf), nil
}
