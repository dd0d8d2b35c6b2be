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

// Package lattice implements the abstract value lattice used by the
// definite-initialization pass: per-object state (Initialized /
// Uninitialized / Consumed), the conservative-merge join on that state, and
// the recursive Full/Partial object shape that per-part-refines it.
package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// InstID identifies the IR instruction that consumed an object. The
// definite-initialization pass never constructs one of these; it only
// threads whatever identifier the IR collaborator (internal/pkg/ir) hands
// it back through Consumed's provenance set.
type InstID uint32

// Kind distinguishes the three leaf states of the lattice.
type Kind int

const (
	Initialized Kind = iota
	Uninitialized
	Consumed
)

func (k Kind) String() string {
	switch k {
	case Initialized:
		return "initialized"
	case Uninitialized:
		return "uninitialized"
	case Consumed:
		return "consumed"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is the leaf element of the lattice: a Kind, plus the set of
// consuming instructions when Kind == Consumed (empty otherwise).
//
// State is a value type; its "set" field is logically immutable once
// constructed — merges always allocate a fresh consumer set rather than
// mutating one in place, so two States may safely share a consumers map.
type State struct {
	kind      Kind
	consumers map[InstID]bool
}

// InitializedState, UninitializedState are the two consumer-free leaves.
var (
	InitializedState   = State{kind: Initialized}
	UninitializedState = State{kind: Uninitialized}
)

// ConsumedBy builds a Consumed state with the given provenance.
func ConsumedBy(ids ...InstID) State {
	set := make(map[InstID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return State{kind: Consumed, consumers: set}
}

func (s State) Kind() Kind { return s.kind }

// Consumers returns the (possibly empty) set of instructions that consumed
// this object. It is only meaningful when Kind() == Consumed.
func (s State) Consumers() map[InstID]bool { return s.consumers }

func (s State) String() string {
	if s.kind != Consumed {
		return s.kind.String()
	}
	ids := make([]string, 0, len(s.consumers))
	for id := range s.consumers {
		ids = append(ids, fmt.Sprintf("%d", id))
	}
	sort.Strings(ids)
	return fmt.Sprintf("consumed(by:{%s})", strings.Join(ids, ","))
}

// Equal reports structural equality: same Kind, and (if Consumed) the same
// consumer set. This is the comparison go-cmp falls back to when it finds
// an Equal method on a type (see internal/pkg/state for where that matters).
func (s State) Equal(other State) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind != Consumed {
		return true
	}
	if len(s.consumers) != len(other.consumers) {
		return false
	}
	for id := range s.consumers {
		if !other.consumers[id] {
			return false
		}
	}
	return true
}

// Join implements the conservative merge s1 ⊓ s2:
//
//	Initialized ⊓ x             = x
//	Uninitialized ⊓ Initialized = Uninitialized
//	Uninitialized ⊓ Uninitialized = Uninitialized
//	Uninitialized ⊓ Consumed(C) = Consumed(C)
//	Consumed(A) ⊓ Consumed(B)   = Consumed(A ∪ B)
//	Consumed(A) ⊓ anything-else = Consumed(A)
//
// Uninitialized dominates Initialized (a read that is live on only one
// incoming edge must still be flagged); Consumed dominates everything and
// carries provenance so diagnostics can name the consumer across merges.
func (s State) Join(other State) State {
	switch {
	case s.kind == Initialized:
		return other
	case other.kind == Initialized:
		return s
	case s.kind == Consumed && other.kind == Consumed:
		merged := make(map[InstID]bool, len(s.consumers)+len(other.consumers))
		for id := range s.consumers {
			merged[id] = true
		}
		for id := range other.consumers {
			merged[id] = true
		}
		return State{kind: Consumed, consumers: merged}
	case s.kind == Consumed:
		return s
	case other.kind == Consumed:
		return other
	default: // both Uninitialized
		return UninitializedState
	}
}
