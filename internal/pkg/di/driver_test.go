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

package di_test

import (
	"testing"

	"github.com/val-lang/valc/internal/pkg/di"
	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
)

var rng = ir.SourceRange{File: "t.val", Line: 1, Col: 1}

var intType = ir.Type{Name: "Int"}
var boolType = ir.Type{Name: "Bool"}
var pairType = ir.Type{Name: "Pair", Fields: []ir.Type{intType, intType}}

func messages(diag *di.Diagnostics) []string {
	items := diag.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Message
	}
	return out
}

// Borrowing a stack slot that was never stored into is a use of an
// uninitialized object.
func TestUseOfUninitialized(t *testing.T) {
	b := ir.NewBuilder("use_of_uninitialized")
	blk := b.Block()
	x := blk.AllocStack(intType, rng)
	blk.Borrow(ir.Let, x, nil, rng)
	blk.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if ok {
		t.Fatal("expected pass to fail")
	}
	if got := messages(diag); len(got) != 1 || got[0] != "use of uninitialized object" {
		t.Fatalf("diagnostics = %v, want exactly [\"use of uninitialized object\"]", got)
	}
}

// Sinking the same parameter into two calls is an illegal move: the second
// call consumes an already-consumed value.
func TestDoubleMove(t *testing.T) {
	b := ir.NewBuilder("double_move")
	p0 := b.Param(ir.Sink, intType)
	blk := b.Block()
	blk.Call(rng, []ir.Convention{ir.Sink}, ir.Reg(p0))
	blk.Call(rng, []ir.Convention{ir.Sink}, ir.Reg(p0))
	blk.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if ok {
		t.Fatal("expected pass to fail")
	}
	if got := messages(diag); len(got) != 1 || got[0] != "illegal move" {
		t.Fatalf("diagnostics = %v, want exactly [\"illegal move\"]", got)
	}
}

// Two branches that leave a stack slot in different init states must
// reconcile at the merge block without raising a diagnostic; running the
// pass a second time over the now-repaired function must not insert any
// further repair instructions.
func TestBranchMergeDivergentInitRepair(t *testing.T) {
	b := ir.NewBuilder("branch_merge")
	p0 := b.Param(ir.Let, boolType)

	b0 := b.Block()
	s := b0.AllocStack(intType, rng)
	cond := b0.Load(boolType, p0, nil, rng)

	b1 := b.Block()
	b2 := b.Block()
	b3 := b.Block()

	b0.CondBranch(ir.Reg(cond), b1.ID(), b2.ID(), rng)
	b1.Store(ir.Const(), s, rng)
	b1.Branch(b3.ID(), rng)
	b2.Branch(b3.ID(), rng)
	b3.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if !ok {
		t.Fatalf("expected pass to succeed, diagnostics = %v", messages(diag))
	}

	blk1 := fn.Block(b1.ID())
	if len(blk1.Instrs) != 4 {
		t.Fatalf("predecessor b1 has %d instructions, want 4 (store, load, deinit, branch)", len(blk1.Instrs))
	}
	if blk1.Instrs[1].Opcode() != ir.OpLoad || blk1.Instrs[2].Opcode() != ir.OpDeinit {
		t.Fatalf("expected load+deinit repair spliced before b1's terminator, got opcodes %v",
			[]ir.Opcode{blk1.Instrs[1].Opcode(), blk1.Instrs[2].Opcode()})
	}
	if blk1.Instrs[3].Opcode() != ir.OpBranch {
		t.Fatal("branch should remain b1's terminator after repair")
	}

	// Idempotence: running DI again must not insert anything further, and
	// must not emit any diagnostic.
	ok2, diag2, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("second RunFunction: %v", err)
	}
	if !ok2 || diag2.Failed() {
		t.Fatalf("second run should succeed cleanly, diagnostics = %v", messages(diag2))
	}
	if len(blk1.Instrs) != 4 {
		t.Fatalf("second run inserted more repairs: b1 now has %d instructions", len(blk1.Instrs))
	}
}

// A "set" borrow over a slot that is already initialized must deinit the
// old value first, turning a borrow into a load+deinit+borrow sequence.
func TestSetBorrowOverInitializedStorage(t *testing.T) {
	b := ir.NewBuilder("set_borrow")
	blk := b.Block()
	x := blk.AllocStack(pairType, rng)
	blk.Store(ir.Const(), x, rng)
	blk.Borrow(ir.Set, x, nil, rng)
	blk.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if !ok || diag.Failed() {
		t.Fatalf("expected no diagnostics, got %v", messages(diag))
	}

	blk0 := fn.Block(0)
	wantOps := []ir.Opcode{ir.OpAllocStack, ir.OpStore, ir.OpLoad, ir.OpDeinit, ir.OpBorrow, ir.OpReturn}
	if len(blk0.Instrs) != len(wantOps) {
		t.Fatalf("block has %d instructions, want %d", len(blk0.Instrs), len(wantOps))
	}
	for i, want := range wantOps {
		if got := blk0.Instrs[i].Opcode(); got != want {
			t.Fatalf("instruction %d has opcode %s, want %s", i, got, want)
		}
	}
}

// Deallocating a stack slot that still holds a live object must deinit it
// first, turning a bare dealloc_stack into load+deinit+dealloc_stack.
func TestDeallocWithLiveObject(t *testing.T) {
	b := ir.NewBuilder("dealloc_live")
	blk := b.Block()
	x := blk.AllocStack(intType, rng)
	blk.Store(ir.Const(), x, rng)
	blk.DeallocStack(x, rng)
	blk.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if !ok || diag.Failed() {
		t.Fatalf("expected no diagnostics, got %v", messages(diag))
	}

	blk0 := fn.Block(0)
	wantOps := []ir.Opcode{ir.OpAllocStack, ir.OpStore, ir.OpLoad, ir.OpDeinit, ir.OpDeallocStack, ir.OpReturn}
	if len(blk0.Instrs) != len(wantOps) {
		t.Fatalf("block has %d instructions, want %d", len(blk0.Instrs), len(wantOps))
	}
	for i, want := range wantOps {
		if got := blk0.Instrs[i].Opcode(); got != want {
			t.Fatalf("instruction %d has opcode %s, want %s", i, got, want)
		}
	}
}

// Initializing only one field of a record and then borrowing the whole
// thing by "let" is a use of a partially initialized object.
func TestPartialInitializationOfRecord(t *testing.T) {
	b := ir.NewBuilder("partial_init")
	blk := b.Block()
	x := blk.AllocStack(pairType, rng)
	field0 := blk.Borrow(ir.Set, x, lattice.Path{0}, rng)
	blk.Store(ir.Const(), field0, rng)
	blk.Borrow(ir.Let, x, nil, rng)
	blk.Return(nil, rng)
	fn := b.Build()

	ok, diag, err := di.RunFunction(fn, ir.TypedProgram{})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if ok {
		t.Fatal("expected pass to fail")
	}
	if got := messages(diag); len(got) != 1 || got[0] != "use of partially initialized object" {
		t.Fatalf("diagnostics = %v, want exactly [\"use of partially initialized object\"]", got)
	}
}
