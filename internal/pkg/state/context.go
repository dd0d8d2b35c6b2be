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

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/maps"

	"github.com/val-lang/valc/internal/pkg/ir"
)

// Context is the abstract state at a program point: locals bound to
// values, and memory cells bound to locations. The zero value is an
// empty context.
type Context struct {
	locals map[ir.RegisterKey]Value
	memory map[ir.Location]Cell
}

// NewContext builds an empty context.
func NewContext() *Context {
	return &Context{locals: map[ir.RegisterKey]Value{}, memory: map[ir.Location]Cell{}}
}

// Clone returns a deep-enough copy: the top-level maps are copied, so
// mutating the clone never affects the original (Value and Cell are
// themselves immutable once constructed).
func (c *Context) Clone() *Context {
	return &Context{locals: maps.Clone(c.locals), memory: maps.Clone(c.memory)}
}

func (c *Context) Local(key ir.RegisterKey) (Value, bool) {
	v, ok := c.locals[key]
	return v, ok
}

func (c *Context) SetLocal(key ir.RegisterKey, v Value) { c.locals[key] = v }

// Locals ranges over every bound local. Iteration order is not meaningful;
// callers needing determinism must sort the keys themselves.
func (c *Context) Locals() map[ir.RegisterKey]Value { return maps.Clone(c.locals) }

func (c *Context) Cell(loc ir.Location) (Cell, bool) {
	cell, ok := c.memory[loc]
	return cell, ok
}

func (c *Context) SetCell(loc ir.Location, cell Cell) { c.memory[loc] = cell }

func (c *Context) DeleteCell(loc ir.Location) { delete(c.memory, loc) }

// Memory ranges over every live cell.
func (c *Context) Memory() map[ir.Location]Cell { return maps.Clone(c.memory) }

// Equal is the value equality the CFG driver uses to detect convergence:
// same locals, same memory, structurally. cmp.Equal dispatches to
// Value.Equal and Cell.Equal for the map values (both types expose an
// Equal method), so this never needs to reach into either type's
// unexported fields.
func (c *Context) Equal(other *Context) bool {
	return cmp.Equal(c.locals, other.locals) && cmp.Equal(c.memory, other.memory)
}

// Join folds two contexts at a control-flow merge: a local present in
// both is retained with its value joined; a local present in only one is
// dropped (it is not live on both incoming paths); memory cells are
// unioned, with collisions joined cell-wise. A type mismatch on a
// colliding cell is a lattice inconsistency — a precondition violation,
// not a value this function can resolve, so it returns an error.
func (c *Context) Join(other *Context) (*Context, error) {
	out := NewContext()
	for k, v := range c.locals {
		if ov, ok := other.locals[k]; ok {
			out.locals[k] = v.Join(ov)
		}
	}
	for l, cell := range c.memory {
		out.memory[l] = cell
	}
	for l, oc := range other.memory {
		if existing, ok := out.memory[l]; ok {
			if existing.Type.String() != oc.Type.String() {
				return nil, fmt.Errorf("state: Join: cell at %s has inconsistent types %s vs %s", l, existing.Type, oc.Type)
			}
			out.memory[l] = Cell{Type: existing.Type, Object: existing.Object.Join(oc.Object)}
		} else {
			out.memory[l] = oc
		}
	}
	return out, nil
}
