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

// Builder is a fluent fixture constructor for Functions, standing in for
// the real IR builder (which belongs to the compiler that embeds this
// pass, not to this package) in tests.
type Builder struct {
	fn     *Function
	nextID lattice.InstID
}

// NewBuilder starts building a function with the given id.
func NewBuilder(id FunctionID) *Builder {
	return &Builder{fn: &Function{ID: id}}
}

// Param declares the next parameter and returns its register key.
func (b *Builder) Param(conv Convention, typ Type) RegisterKey {
	i := len(b.fn.Params)
	b.fn.Params = append(b.fn.Params, Param{Convention: conv, Type: typ})
	return ParamKey(i)
}

func (b *Builder) nextInstID() lattice.InstID {
	b.nextID++
	return b.nextID
}

// Block appends a new basic block and returns a handle for populating it.
func (b *Builder) Block() *BlockHandle {
	id := BlockID(len(b.fn.Blocks))
	blk := &BasicBlock{ID: id}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return &BlockHandle{b: b, blk: blk}
}

// Build finalizes the function. The builder must not be reused afterward.
func (b *Builder) Build() *Function {
	b.fn.nextInst = b.nextID
	return b.fn
}

// BlockHandle appends instructions to one basic block, in order.
type BlockHandle struct {
	b   *Builder
	blk *BasicBlock
}

func (h *BlockHandle) ID() BlockID { return h.blk.ID }

func (h *BlockHandle) append(instr Instruction) {
	h.blk.Instrs = append(h.blk.Instrs, instr)
}

func (h *BlockHandle) AllocStack(typ Type, rng SourceRange) RegisterKey {
	id := h.b.nextInstID()
	h.append(AllocStackInst{instBase: instBase{Inst: id, Src: rng}, Result: ResultKey(id, 0), Type: typ})
	return ResultKey(id, 0)
}

func (h *BlockHandle) Borrow(cap Convention, src RegisterKey, path lattice.Path, rng SourceRange) RegisterKey {
	id := h.b.nextInstID()
	h.append(BorrowInst{instBase: instBase{Inst: id, Src: rng}, Result: ResultKey(id, 0), Capability: cap, Source: src, Path: path})
	return ResultKey(id, 0)
}

func (h *BlockHandle) Load(typ Type, src RegisterKey, path lattice.Path, rng SourceRange) RegisterKey {
	id := h.b.nextInstID()
	h.append(LoadInst{instBase: instBase{Inst: id, Src: rng}, Result: ResultKey(id, 0), ValueType: typ, Source: src, Path: path})
	return ResultKey(id, 0)
}

func (h *BlockHandle) Store(obj Operand, target RegisterKey, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(StoreInst{instBase: instBase{Inst: id, Src: rng}, Object: obj, Target: target})
}

func (h *BlockHandle) Record(rng SourceRange, operands ...Operand) RegisterKey {
	id := h.b.nextInstID()
	h.append(RecordInst{instBase: instBase{Inst: id, Src: rng}, Result: ResultKey(id, 0), Operands: operands})
	return ResultKey(id, 0)
}

func (h *BlockHandle) Destructure(obj Operand, n int, rng SourceRange) []RegisterKey {
	id := h.b.nextInstID()
	results := make([]RegisterKey, n)
	for i := range results {
		results[i] = ResultKey(id, i)
	}
	h.append(DestructureInst{instBase: instBase{Inst: id, Src: rng}, Results: results, Object: obj})
	return results
}

func (h *BlockHandle) Call(rng SourceRange, conventions []Convention, operands ...Operand) RegisterKey {
	id := h.b.nextInstID()
	h.append(CallInst{instBase: instBase{Inst: id, Src: rng}, Result: ResultKey(id, 0), Operands: operands, Conventions: conventions})
	return ResultKey(id, 0)
}

func (h *BlockHandle) Deinit(obj Operand, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(DeinitInst{instBase: instBase{Inst: id, Src: rng}, Object: obj})
}

func (h *BlockHandle) DeallocStack(loc RegisterKey, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(DeallocStackInst{instBase: instBase{Inst: id, Src: rng}, Location: loc})
}

func (h *BlockHandle) CondBranch(cond Operand, then, els BlockID, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(CondBranchInst{instBase: instBase{Inst: id, Src: rng}, Cond: cond, Then: then, Else: els})
}

func (h *BlockHandle) Return(val *Operand, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(ReturnInst{instBase: instBase{Inst: id, Src: rng}, Value: val})
}

func (h *BlockHandle) Branch(target BlockID, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(BranchInst{instBase: instBase{Inst: id, Src: rng}, Target: target})
}

func (h *BlockHandle) EndBorrow(borrowed RegisterKey, rng SourceRange) {
	id := h.b.nextInstID()
	h.append(EndBorrowInst{instBase: instBase{Inst: id, Src: rng}, Borrowed: borrowed})
}

func (h *BlockHandle) Unreachable(rng SourceRange) {
	id := h.b.nextInstID()
	h.append(UnreachableInst{instBase: instBase{Inst: id, Src: rng}})
}

// Reg is a convenience constructor for a non-constant Operand.
func Reg(k RegisterKey) Operand { return Operand{Reg: k} }

// Const is a convenience constructor for a constant Operand.
func Const() Operand { return Operand{IsConstant: true} }
