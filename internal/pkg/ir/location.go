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

import (
	"fmt"

	"github.com/val-lang/valc/internal/pkg/lattice"
)

// BlockID identifies a basic block within a single Function.
type BlockID uint32

// Location is an abstract memory location: the sentinel Null, an argument
// slot bound under let/inout/set, a stack cell produced by alloc_stack, or
// a record sub-path rooted in one of those.
//
// Location is a plain comparable value (every concrete variant's fields
// are themselves comparable) so it can be used directly as a map key in
// Context.memory. A multi-level Sub(root, path) is represented as a chain
// of single-field wrappers rather than a location carrying a []int, which
// would make the type uncomparable and unusable as a map key or interface
// equality operand.
type Location interface {
	isLocation()
	String() string
}

// Null is the sentinel location defined for comparisons only; projecting
// through it is always a precondition violation.
var Null Location = nullLocation{}

type nullLocation struct{}

func (nullLocation) isLocation()    {}
func (nullLocation) String() string { return "<null>" }

// Arg builds the location bound to parameter i under let/inout/set.
func Arg(i int) Location { return argLocation{Index: i} }

type argLocation struct{ Index int }

func (argLocation) isLocation()      {}
func (a argLocation) String() string { return fmt.Sprintf("arg(%d)", a.Index) }

// Inst builds the location of the stack cell produced by the alloc_stack
// instruction with id addr in block b.
func Inst(b BlockID, addr lattice.InstID) Location { return instLocation{Block: b, Addr: addr} }

type instLocation struct {
	Block BlockID
	Addr  lattice.InstID
}

func (instLocation) isLocation() {}
func (l instLocation) String() string {
	return fmt.Sprintf("inst(b%d,%d)", l.Block, l.Addr)
}

// subLocation is one link of a Sub(root, path) chain: root projected
// through a single stored-property index.
type subLocation struct {
	Root  Location
	Field int
}

func (subLocation) isLocation() {}
func (l subLocation) String() string {
	return fmt.Sprintf("%s.%d", l.Root, l.Field)
}

// Sub builds the sub-location reached by walking path from root. An empty
// path canonicalizes to root itself.
func Sub(root Location, path lattice.Path) Location {
	cur := root
	for _, i := range path {
		cur = subLocation{Root: cur, Field: i}
	}
	return cur
}

// Append extends loc by path, used by borrow's "L := {s.append(path) : s in S}".
func Append(loc Location, path lattice.Path) Location { return Sub(loc, path) }

// RootAndPath decomposes a location into its non-Sub root and the path
// that reaches it, the inverse of Sub.
func RootAndPath(loc Location) (Location, lattice.Path) {
	var path lattice.Path
	cur := loc
	for {
		sl, ok := cur.(subLocation)
		if !ok {
			return cur, path
		}
		next := make(lattice.Path, 0, len(path)+1)
		next = append(next, sl.Field)
		next = append(next, path...)
		path = next
		cur = sl.Root
	}
}
