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

// FunctionID names a function within a Module.
type FunctionID string

// Param is a function parameter's declared convention and type.
type Param struct {
	Convention Convention
	Type       Type
}

// BasicBlock is an ordered instruction stream terminated by exactly one of
// branch/cond_branch/return/unreachable.
type BasicBlock struct {
	ID     BlockID
	Instrs []Instruction
}

// Terminator returns the block's last instruction, or nil if the block is
// empty (which is itself a precondition violation for any reachable block).
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Function is a single analyzable unit: parameters, blocks in declaration
// order (Blocks[0] is the entry block), and bookkeeping for allocating
// fresh instruction ids when DI inserts repair instructions.
type Function struct {
	ID       FunctionID
	Params   []Param
	Blocks   []*BasicBlock
	nextInst lattice.InstID
}

// Entry returns the function's entry block.
func (fn *Function) Entry() *BasicBlock { return fn.Blocks[0] }

// Block looks up a block by id.
func (fn *Function) Block(id BlockID) *BasicBlock {
	for _, b := range fn.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// NewInstID allocates a fresh instruction id, used when DI inserts repair
// instructions (load/deinit) that were not present in the original IR.
func (fn *Function) NewInstID() lattice.InstID {
	fn.nextInst++
	return fn.nextInst
}

// locate finds the (block index, instruction index) of the instruction
// with the given id. Used by the IR mutator to splice in repairs.
func (fn *Function) locate(id lattice.InstID) (blockIdx, instrIdx int, ok bool) {
	for bi, b := range fn.Blocks {
		for ii, instr := range b.Instrs {
			if instr.ID() == id {
				return bi, ii, true
			}
		}
	}
	return 0, 0, false
}
