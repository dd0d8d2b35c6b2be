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

package ir

import "github.com/val-lang/valc/internal/pkg/lattice"

// Type is the abstract record layout the type checker would otherwise hand
// DI: a name plus, for record types, the ordered list of stored-property
// types. Non-record types (scalars, pointers-by-value under this language's
// value semantics) have no Fields.
type Type struct {
	Name   string
	Fields []Type
}

// NumFields is the stored-property count used to disaggregate a Full
// object view of this type.
func (t Type) NumFields() int { return len(t.Fields) }

func (t Type) String() string { return t.Name }

// TypedProgram is the read-only type-layout oracle the pass queries.
// AbstractLayout walks a record path from a root type and returns the type
// found at that path together with its stored-property types.
type TypedProgram struct{}

// AbstractLayout returns (type-at-path, stored-property-types-of-that-type).
// It is a precondition violation to pass a path that doesn't correspond to
// stored properties at every step (e.g. indexing into a non-record type,
// or a negative/out-of-range offset); tail-allocated objects are not yet
// supported.
func (TypedProgram) AbstractLayout(of Type, at lattice.Path) (Type, []Type, error) {
	cur := of
	for _, i := range at {
		if i < 0 {
			return Type{}, nil, violation("AbstractLayout", "negative path offset %d", i)
		}
		if i >= len(cur.Fields) {
			return Type{}, nil, violation("AbstractLayout", "offset %d out of range for type %s with %d stored properties", i, cur.Name, len(cur.Fields))
		}
		cur = cur.Fields[i]
	}
	return cur, cur.Fields, nil
}
