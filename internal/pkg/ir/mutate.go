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

// InsertBefore splices instr into fn immediately before the instruction
// identified by before. It is the only IR mutation the pass performs: no
// deletion, no reordering.
func InsertBefore(fn *Function, before Instruction, instr Instruction) error {
	blockIdx, instrIdx, ok := fn.locate(before.ID())
	if !ok {
		return violation("InsertBefore", "anchor instruction %d not found", before.ID())
	}
	b := fn.Blocks[blockIdx]
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[instrIdx+1:], b.Instrs[instrIdx:])
	b.Instrs[instrIdx] = instr
	return nil
}

// InsertBeforeTerminator splices instr immediately before b's terminator,
// used by edge reconciliation to insert repairs before a predecessor's
// branch/return.
func InsertBeforeTerminator(fn *Function, b *BasicBlock, instr Instruction) error {
	term := b.Terminator()
	if term == nil {
		return violation("InsertBeforeTerminator", "block %d has no terminator", b.ID)
	}
	return InsertBefore(fn, term, instr)
}
