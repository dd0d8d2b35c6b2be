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

package lattice

// SummaryKind is the five-way categorization of an object's state used by
// transfer functions and diagnostics.
type SummaryKind int

const (
	FullyInitialized SummaryKind = iota
	FullyUninitialized
	FullyConsumed
	PartiallyInitialized
	PartiallyConsumed
)

func (k SummaryKind) String() string {
	switch k {
	case FullyInitialized:
		return "fully initialized"
	case FullyUninitialized:
		return "fully uninitialized"
	case FullyConsumed:
		return "fully consumed"
	case PartiallyInitialized:
		return "partially initialized"
	case PartiallyConsumed:
		return "partially consumed"
	default:
		return "unknown summary"
	}
}

// Summary is the result of categorizing an Object for a transfer function
// or a diagnostic.
type Summary struct {
	Kind SummaryKind
	// Consumers is the union of consuming instructions across every
	// Consumed leaf; meaningful for FullyConsumed and PartiallyConsumed.
	Consumers map[InstID]bool
	// InitializedPaths lists the leaves (relative to the summarized
	// object's root) that are Initialized; meaningful for
	// PartiallyInitialized and PartiallyConsumed.
	InitializedPaths []Path
}

// Summarize categorizes o into one of the five SummaryKinds.
func Summarize(o Object) Summary {
	var anyInit, anyUninit, anyConsumed bool
	consumers := map[InstID]bool{}
	var initPaths []Path

	var walk func(o Object, prefix Path)
	walk = func(o Object, prefix Path) {
		if o.full {
			switch o.state.Kind() {
			case Initialized:
				anyInit = true
				initPaths = append(initPaths, prefix)
			case Uninitialized:
				anyUninit = true
			case Consumed:
				anyConsumed = true
				for id := range o.state.Consumers() {
					consumers[id] = true
				}
			}
			return
		}
		for i, p := range o.parts {
			walk(p, prefix.child(i))
		}
	}
	walk(o, nil)

	switch {
	case anyConsumed && anyInit:
		return Summary{Kind: PartiallyConsumed, Consumers: consumers, InitializedPaths: initPaths}
	case anyConsumed && !anyInit && anyUninit:
		return Summary{Kind: PartiallyConsumed, Consumers: consumers}
	case anyConsumed:
		return Summary{Kind: FullyConsumed, Consumers: consumers}
	case anyInit && anyUninit:
		return Summary{Kind: PartiallyInitialized, InitializedPaths: initPaths}
	case anyInit:
		return Summary{Kind: FullyInitialized}
	default:
		return Summary{Kind: FullyUninitialized}
	}
}

// uninitializedOrConsumedPaths lists the leaves (relative to o's root) that
// are NOT Initialized — i.e. Uninitialized or Consumed. It backs the
// difference operator's base case on a Full(Initialized) left-hand side.
func uninitializedOrConsumedPaths(o Object) []Path {
	var out []Path
	var walk func(o Object, prefix Path)
	walk = func(o Object, prefix Path) {
		if o.full {
			if o.state.Kind() != Initialized {
				out = append(out, prefix)
			}
			return
		}
		for i, p := range o.parts {
			walk(p, prefix.child(i))
		}
	}
	walk(o, nil)
	return out
}

// Difference returns the list of paths that are Initialized in a but not
// in b, defined recursively over the Full/Partial structure:
//
//	Full(Initialized) vs. other -> other's uninitialized-or-consumed paths
//	Full(non-init) vs. anything -> []
//	Partial/Partial             -> recurse pairwise
//
// a and b need not share shape: whichever side is Full is treated as if
// disaggregated to the other side's arity before recursing.
func Difference(a, b Object) []Path {
	if a.full {
		if a.state.Kind() == Initialized {
			return uninitializedOrConsumedPaths(b)
		}
		return nil
	}
	// a is Partial.
	if b.full {
		var out []Path
		bFull := Full(b.state)
		for i, ap := range a.parts {
			for _, p := range Difference(ap, bFull) {
				out = append(out, p.prepend(i))
			}
		}
		return out
	}
	if len(a.parts) != len(b.parts) {
		panic("lattice: Difference arity mismatch between Partial objects")
	}
	var out []Path
	for i := range a.parts {
		for _, p := range Difference(a.parts[i], b.parts[i]) {
			out = append(out, p.prepend(i))
		}
	}
	return out
}
