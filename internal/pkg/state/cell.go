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

package state

import "github.com/val-lang/valc/internal/pkg/lattice"
import "github.com/val-lang/valc/internal/pkg/ir"

// Cell is an abstract memory location's contents: a type (fixed at
// creation) and an object state.
type Cell struct {
	Type   ir.Type
	Object lattice.Object
}

// Equal reports structural equality. Two cells of differing type at a
// merged location is a lattice inconsistency (a precondition violation),
// never silently resolved here.
func (c Cell) Equal(other Cell) bool {
	return c.Type.String() == other.Type.String() && c.Object.Equal(other.Object)
}
