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

package ir_test

import (
	"testing"

	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
)

var rng = ir.SourceRange{File: "t.val", Line: 1, Col: 1}

// diamond builds:
//
//	b0 -> b1, b2
//	b1 -> b3
//	b2 -> b3
//	b3 -> return
func diamond(t *testing.T) *ir.Function {
	t.Helper()
	b := ir.NewBuilder("diamond")
	p0 := b.Param(ir.Let, ir.Type{Name: "Bool"})

	b0 := b.Block()
	b1 := b.Block()
	b2 := b.Block()
	b3 := b.Block()

	b0.CondBranch(ir.Reg(p0), b1.ID(), b2.ID(), rng)
	b1.Branch(b3.ID(), rng)
	b2.Branch(b3.ID(), rng)
	b3.Return(nil, rng)

	return b.Build()
}

func TestCFGSuccessorsPredecessors(t *testing.T) {
	fn := diamond(t)
	cfg, err := ir.BuildCFG(fn)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if got := cfg.Successors(0); len(got) != 2 {
		t.Fatalf("b0 successors = %v, want 2 entries", got)
	}
	if got := cfg.Predecessors(3); len(got) != 2 {
		t.Fatalf("b3 predecessors = %v, want 2 entries", got)
	}
	if got := cfg.Successors(3); got != nil {
		t.Fatalf("b3 (return) successors = %v, want none", got)
	}
}

func TestDominatorTreeDiamond(t *testing.T) {
	fn := diamond(t)
	cfg, err := ir.BuildCFG(fn)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	dt, err := ir.BuildDominatorTree(fn, cfg)
	if err != nil {
		t.Fatalf("BuildDominatorTree: %v", err)
	}

	// b0 dominates everything; b1/b2 dominate only themselves; b3's
	// immediate dominator is b0, not b1 or b2, since neither side of the
	// diamond alone reaches it.
	if idom, ok := dt.Idom(3); !ok || idom != 0 {
		t.Fatalf("idom(b3) = (%v, %v), want (0, true)", idom, ok)
	}
	if !dt.Dominates(0, 3) {
		t.Fatal("b0 should dominate b3")
	}
	if dt.Dominates(1, 3) {
		t.Fatal("b1 should not dominate b3")
	}
	if dt.Dominates(2, 3) {
		t.Fatal("b2 should not dominate b3")
	}
	if !dt.Dominates(0, 0) {
		t.Fatal("every block should dominate itself")
	}
}

func TestDominatorTreeUnreachableBlock(t *testing.T) {
	b := ir.NewBuilder("withDead")
	b0 := b.Block()
	dead := b.Block()
	b0.Return(nil, rng)
	dead.Return(nil, rng)
	fn := b.Build()

	cfg, err := ir.BuildCFG(fn)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	dt, err := ir.BuildDominatorTree(fn, cfg)
	if err != nil {
		t.Fatalf("BuildDominatorTree: %v", err)
	}
	if _, ok := dt.Idom(dead.ID()); ok {
		t.Fatal("unreachable block should have no immediate dominator")
	}
}

func TestInsertBeforeTerminator(t *testing.T) {
	b := ir.NewBuilder("f")
	alloc := b.Block()
	a := alloc.AllocStack(ir.Type{Name: "Int"}, rng)
	alloc.Return(nil, rng)
	fn := b.Build()

	blk := fn.Block(0)
	before := len(blk.Instrs)
	extra := ir.DeinitInst{Object: ir.Reg(a)}
	if err := ir.InsertBeforeTerminator(fn, blk, extra); err != nil {
		t.Fatalf("InsertBeforeTerminator: %v", err)
	}
	if len(blk.Instrs) != before+1 {
		t.Fatalf("block has %d instructions, want %d", len(blk.Instrs), before+1)
	}
	if blk.Instrs[len(blk.Instrs)-1].Opcode() != ir.OpReturn {
		t.Fatal("terminator should remain last after insertion")
	}
	if blk.Instrs[len(blk.Instrs)-2].Opcode() != ir.OpDeinit {
		t.Fatal("deinit should be inserted immediately before the terminator")
	}
}

func TestLocationSubRoundTrip(t *testing.T) {
	root := ir.Arg(0)
	loc := ir.Sub(root, lattice.Path{1, 0, 2})
	gotRoot, gotPath := ir.RootAndPath(loc)
	if gotRoot != root {
		t.Fatalf("root = %v, want %v", gotRoot, root)
	}
	if !gotPath.Equal(lattice.Path{1, 0, 2}) {
		t.Fatalf("path = %v, want [1 0 2]", gotPath)
	}
}

func TestLocationSubEmptyPathIsRoot(t *testing.T) {
	root := ir.Inst(0, 5)
	if got := ir.Sub(root, nil); got != root {
		t.Fatalf("Sub(root, nil) = %v, want %v itself", got, root)
	}
}
