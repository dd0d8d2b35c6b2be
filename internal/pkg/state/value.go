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

// Package state implements the symbolic memory model and the abstract
// context: the per-program-point mapping of local registers to values
// and locations to cells that the CFG driver (internal/pkg/di) threads
// through the fixed-point loop.
package state

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
)

// Value is what a local register holds: either a non-empty set of
// locations (a borrow result, possibly aliasing on divergent paths) or an
// rvalue object.
type Value struct {
	locations map[ir.Location]bool // non-nil iff this is a Locations value
	object    lattice.Object
	isObject  bool
}

// Locations builds a Locations(S) value. S must be non-empty; callers
// violate a precondition by passing none.
func Locations(locs ...ir.Location) Value {
	if len(locs) == 0 {
		panic("state: Locations requires at least one location")
	}
	set := make(map[ir.Location]bool, len(locs))
	for _, l := range locs {
		set[l] = true
	}
	return Value{locations: set}
}

// locationSet builds a Locations value directly from a set, used internally
// where the set is already deduplicated (Join's union of two location sets).
func locationSet(set map[ir.Location]bool) Value {
	if len(set) == 0 {
		panic("state: Locations requires at least one location")
	}
	return Value{locations: set}
}

// ObjectValue builds an Object(o) rvalue.
func ObjectValue(o lattice.Object) Value {
	return Value{object: o, isObject: true}
}

func (v Value) IsLocations() bool { return v.locations != nil }
func (v Value) IsObject() bool    { return v.isObject }

// LocationSet returns the set of locations of a Locations value. Calling it
// on an Object value is a precondition violation.
func (v Value) LocationSet() map[ir.Location]bool {
	if v.locations == nil {
		panic("state: LocationSet called on an Object value")
	}
	return maps.Clone(v.locations)
}

// SortedLocations returns the Locations set in a deterministic order, used
// wherever repair insertion order must be a pure function of the input.
func (v Value) SortedLocations() []ir.Location {
	locs := make([]ir.Location, 0, len(v.locations))
	for l := range v.locations {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].String() < locs[j].String() })
	return locs
}

// Object returns the object of an Object value. Calling it on a Locations
// value is a precondition violation.
func (v Value) Object() lattice.Object {
	if !v.isObject {
		panic("state: Object called on a Locations value")
	}
	return v.object
}

// Join computes the component-wise conservative merge of two values.
// Mixing kinds is a precondition violation — the IR type system is
// supposed to exclude it.
func (v Value) Join(other Value) Value {
	if v.IsLocations() && other.IsLocations() {
		merged := make(map[ir.Location]bool, len(v.locations)+len(other.locations))
		for l := range v.locations {
			merged[l] = true
		}
		for l := range other.locations {
			merged[l] = true
		}
		return locationSet(merged)
	}
	if v.IsObject() && other.IsObject() {
		return ObjectValue(v.object.Join(other.object))
	}
	panic("state: Join called on values of mismatched kind")
}

// Equal reports structural equality.
func (v Value) Equal(other Value) bool {
	if v.IsLocations() != other.IsLocations() {
		return false
	}
	if v.IsLocations() {
		return maps.Equal(v.locations, other.locations)
	}
	return v.object.Equal(other.object)
}
