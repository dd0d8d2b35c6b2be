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

import "fmt"

// Path is a record path: a sequence of stored-property indices from some
// root object down to a leaf. The empty path denotes the root itself.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	s := ""
	for _, i := range p {
		s += fmt.Sprintf(".%d", i)
	}
	return s
}

func (p Path) prepend(i int) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, i)
	out = append(out, p...)
	return out
}

// child returns the path reached by descending into stored property i.
func (p Path) child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Object is the per-register or per-cell view of a value of record type:
// either Full (every part shares one State) or Partial (one sub-object per
// stored property). Partial is non-empty by construction; a Partial whose
// canonical children are all equal to the same Full(s) canonicalizes back
// to Full(s).
type Object struct {
	full  bool
	state State    // meaningful iff full
	parts []Object // meaningful iff !full, len >= 1
}

// Full builds the canonical all-parts-equal object in state s.
func Full(s State) Object {
	return Object{full: true, state: s}
}

// NewPartial builds a Partial object from per-part sub-objects, canonicalizing
// it back to Full if every part turns out to agree. Panics on an empty slice:
// a Partial must have at least one stored property.
func NewPartial(parts []Object) Object {
	if len(parts) == 0 {
		panic("lattice: NewPartial requires at least one part")
	}
	return canonicalize(Object{full: false, parts: append([]Object(nil), parts...)})
}

func canonicalize(o Object) Object {
	if o.full {
		return o
	}
	parts := make([]Object, len(o.parts))
	for i, p := range o.parts {
		parts[i] = canonicalize(p)
	}
	first := parts[0]
	if first.full {
		allEqual := true
		for _, p := range parts[1:] {
			if !p.full || !p.state.Equal(first.state) {
				allEqual = false
				break
			}
		}
		if allEqual {
			return Full(first.state)
		}
	}
	return Object{full: false, parts: parts}
}

// IsFull reports whether o is in canonical Full form.
func (o Object) IsFull() bool { return o.full }

// State returns the uniform state of a Full object. Calling it on a Partial
// object is a precondition violation — callers must check IsFull first.
func (o Object) State() State {
	if !o.full {
		panic("lattice: State() called on a Partial object")
	}
	return o.state
}

// Parts returns the sub-objects of a Partial object (a defensive copy).
// Calling it on a Full object is a precondition violation.
func (o Object) Parts() []Object {
	if o.full {
		panic("lattice: Parts() called on a Full object")
	}
	return append([]Object(nil), o.parts...)
}

// NumParts is the stored-property count a Disaggregate call would use; it
// is only meaningful once the object has been disaggregated at least once,
// since a Full object carries no arity of its own.
func (o Object) NumParts() int {
	if o.full {
		return 0
	}
	return len(o.parts)
}

// Disaggregate refines a Full object into a Partial with n identical
// Full(s) children, ready for a single child to be overwritten and the
// whole re-canonicalized. It is a precondition violation to call it with
// n <= 0, or on an object that is already Partial with a different arity
// (the record layout oracle is the single source of truth for n).
func Disaggregate(o Object, n int) Object {
	if n <= 0 {
		panic("lattice: Disaggregate requires a positive stored-property count")
	}
	if !o.full {
		if len(o.parts) != n {
			panic("lattice: Disaggregate arity mismatch with existing Partial")
		}
		return o
	}
	parts := make([]Object, n)
	for i := range parts {
		parts[i] = Full(o.state)
	}
	return Object{full: false, parts: parts}
}

// WithPart returns a copy of a Partial object with part i replaced by v,
// re-canonicalized. i must be in range.
func (o Object) WithPart(i int, v Object) Object {
	if o.full {
		panic("lattice: WithPart called on a Full object")
	}
	parts := append([]Object(nil), o.parts...)
	parts[i] = v
	return canonicalize(Object{full: false, parts: parts})
}

// Equal reports deep structural equality between two objects.
func (o Object) Equal(other Object) bool {
	if o.full != other.full {
		return false
	}
	if o.full {
		return o.state.Equal(other.state)
	}
	if len(o.parts) != len(other.parts) {
		return false
	}
	for i := range o.parts {
		if !o.parts[i].Equal(other.parts[i]) {
			return false
		}
	}
	return true
}

// Join computes the component-wise conservative merge of two objects of
// the same record shape, canonicalizing the result.
func (o Object) Join(other Object) Object {
	if o.full && other.full {
		return Full(o.state.Join(other.state))
	}
	if o.full {
		o = Disaggregate(o, other.NumParts())
	}
	if other.full {
		other = Disaggregate(other, o.NumParts())
	}
	if len(o.parts) != len(other.parts) {
		panic("lattice: Join arity mismatch")
	}
	parts := make([]Object, len(o.parts))
	for i := range parts {
		parts[i] = o.parts[i].Join(other.parts[i])
	}
	return canonicalize(Object{full: false, parts: parts})
}

func (o Object) String() string {
	if o.full {
		return o.state.String()
	}
	s := "{"
	for i, p := range o.parts {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d: %s", i, p)
	}
	return s + "}"
}
