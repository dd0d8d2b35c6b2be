// Copyright 2026 The valc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package di

import (
	"golang.org/x/exp/slices"

	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
)

// The exact user-visible diagnostic strings.
const (
	msgIllegalMove               = "illegal move"
	msgUnboundedStackAllocation  = "unbounded stack allocation"
	msgUseOfConsumed             = "use of consumed object"
	msgUseOfPartiallyConsumed    = "use of partially consumed object"
	msgUseOfPartiallyInitialized = "use of partially initialized object"
	msgUseOfUninitialized        = "use of uninitialized object"
)

// useMessage maps a non-FullyInitialized summary to the diagnostic string a
// borrow/load of that summary raises. Called only when kind != FullyInitialized.
func useMessage(kind lattice.SummaryKind) string {
	switch kind {
	case lattice.FullyUninitialized:
		return msgUseOfUninitialized
	case lattice.FullyConsumed:
		return msgUseOfConsumed
	case lattice.PartiallyInitialized:
		return msgUseOfPartiallyInitialized
	case lattice.PartiallyConsumed:
		return msgUseOfPartiallyConsumed
	default:
		return msgUseOfUninitialized
	}
}

// Diagnostic is a single structured error: a human message, a source
// location, and an optional source window.
type Diagnostic struct {
	Message string
	Range   ir.SourceRange
}

// Diagnostics accumulates the errors emitted during a single run of the
// pass.
type Diagnostics struct {
	items []Diagnostic
}

func (d *Diagnostics) add(message string, rng ir.SourceRange) {
	d.items = append(d.items, Diagnostic{Message: message, Range: rng})
}

// Failed reports whether any diagnostic was emitted; the pass returns
// false from Run iff this is true.
func (d *Diagnostics) Failed() bool { return len(d.items) > 0 }

// Items returns the diagnostics in emission order (block-visitation order,
// not source order).
func (d *Diagnostics) Items() []Diagnostic {
	return append([]Diagnostic(nil), d.items...)
}

// SortedBySource returns the diagnostics ordered by source range, for
// consumers that must display them in source order.
func (d *Diagnostics) SortedBySource() []Diagnostic {
	out := append([]Diagnostic(nil), d.items...)
	slices.SortFunc(out, func(a, b Diagnostic) bool {
		if a.Range.File != b.Range.File {
			return a.Range.File < b.Range.File
		}
		if a.Range.Line != b.Range.Line {
			return a.Range.Line < b.Range.Line
		}
		return a.Range.Col < b.Range.Col
	})
	return out
}
