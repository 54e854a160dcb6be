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

// Package clockutil re-exports benbjohnson/clock so every package that
// needs the current time takes a clock.Clock field instead of calling
// time.Now() directly, the way the teacher's renderer and upgrade commands
// do it — production code wires clock.New(), tests wire clock.NewMock().
package clockutil

import "github.com/benbjohnson/clock"

// New returns the production clock.
func New() clock.Clock { return clock.New() }
