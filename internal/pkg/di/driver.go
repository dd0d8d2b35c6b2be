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

package di

import (
	"golang.org/x/tools/container/intsets"

	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
	"github.com/val-lang/valc/internal/pkg/state"
)

// Driver is the CFG driver: a dominator-guided work-list fixed point
// over a single function's blocks.
type Driver struct {
	fn     *ir.Function
	cfg    *ir.CFG
	dom    *ir.DominatorTree
	layout ir.TypedProgram
	diag   *Diagnostics

	before map[ir.BlockID]*state.Context
	after  map[ir.BlockID]*state.Context
	// done is the settled-block set; intsets.Sparse rather than a map,
	// matching how the dominator tree already tracks its own
	// visited/reachable sets (internal/pkg/ir/dom.go).
	done intsets.Sparse
}

func (d *Driver) isDone(b ir.BlockID) bool { return d.done.Has(int(b)) }
func (d *Driver) markDone(b ir.BlockID)    { d.done.Insert(int(b)) }
func (d *Driver) clearDone(b ir.BlockID)   { d.done.Remove(int(b)) }

// RunFunction drives DI to a fixed point on fn, mutating it in place with
// any repair instructions the edge-reconciliation and set-borrow/
// dealloc_stack rules insert. ok is false iff a diagnostic was emitted;
// err is non-nil only for a precondition violation, which halts
// immediately and leaves fn partially, perhaps inconsistently, repaired.
// Analyzer.Run (in analyzer.go) calls this once per function in a module.
func RunFunction(fn *ir.Function, layout ir.TypedProgram) (ok bool, diag *Diagnostics, err error) {
	cfg, err := ir.BuildCFG(fn)
	if err != nil {
		return false, nil, err
	}
	dom, err := ir.BuildDominatorTree(fn, cfg)
	if err != nil {
		return false, nil, err
	}
	d := &Driver{
		fn:     fn,
		cfg:    cfg,
		dom:    dom,
		layout: layout,
		diag:   &Diagnostics{},
		before: map[ir.BlockID]*state.Context{},
		after:  map[ir.BlockID]*state.Context{},
	}
	if failed, err := d.run(); err != nil {
		return false, d.diag, err
	} else if failed {
		return false, d.diag, nil
	}
	return true, d.diag, nil
}

// run is the work-list loop itself. It returns failed == true the moment
// any block's evaluator emits a diagnostic: the first failed evaluator
// aborts the run; subsequent blocks are left unevaluated.
func (d *Driver) run() (failed bool, err error) {
	entry := d.fn.Entry().ID
	queue := d.dom.BFSOrder()

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if d.isDone(b) {
			continue
		}

		if b == entry {
			before, err := d.entryContext()
			if err != nil {
				return false, err
			}
			d.before[b] = before
			ok, err := d.evaluateAndStore(b, before)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
			d.markDone(b)
			continue
		}

		idom, ok := d.dom.Idom(b)
		if !ok {
			return false, violation("Driver.run", "block %d is unreachable from the entry (no immediate dominator)", b)
		}
		if !d.readyToReconcile(b, idom) {
			queue = append(queue, b)
			continue
		}

		mr, err := d.reconcileBefore(b)
		if err != nil {
			return false, err
		}
		if len(mr.dirtied) > 0 {
			for _, p := range mr.dirtied {
				// p's tail just gained repair instructions: its stored
				// before-context may well be unchanged (the repair fixes
				// up p's own exit, not what flows into it), so the
				// before-equality shortcut below must not be allowed to
				// treat p as already settled against stale before/after
				// contexts computed from its pre-repair instruction list.
				delete(d.before, p)
				queue = append(queue, d.undoTransitive(p)...)
			}
			queue = append(queue, b)
			continue
		}

		if prev, ok := d.before[b]; ok && prev.Equal(mr.before) {
			d.markDone(b)
			continue
		}

		prevAfter, hadPrevAfter := d.after[b]
		d.before[b] = mr.before
		ok, err = d.evaluateAndStore(b, mr.before)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}

		if d.isSettled(b, prevAfter, hadPrevAfter) {
			d.markDone(b)
		} else {
			queue = append(queue, b)
		}
	}
	return false, nil
}

// readyToReconcile reports whether every context reconcileBefore(b) would
// need — the immediate dominator's, and every non-back-edge predecessor's
// — has already been produced. A predecessor p with b dominating p is a
// loop back edge; the driver never waits on it, since waiting would
// deadlock (p can only be reached through b).
func (d *Driver) readyToReconcile(b, idom ir.BlockID) bool {
	if _, ok := d.after[idom]; !ok {
		return false
	}
	for _, p := range d.cfg.Predecessors(b) {
		if d.dom.Dominates(b, p) {
			continue
		}
		if _, ok := d.after[p]; !ok {
			return false
		}
	}
	return true
}

// isSettled decides whether a block is done once it has just been
// (re-)evaluated: done iff every predecessor is already done, or the only
// un-done predecessor is the block itself and its after-context did not
// change from the last time it was evaluated.
func (d *Driver) isSettled(b ir.BlockID, prevAfter *state.Context, hadPrevAfter bool) bool {
	allDone := true
	onlySelfUndone := true
	for _, p := range d.cfg.Predecessors(b) {
		if !d.isDone(p) {
			allDone = false
			if p != b {
				onlySelfUndone = false
			}
		}
	}
	if allDone {
		return true
	}
	return onlySelfUndone && hadPrevAfter && prevAfter.Equal(d.after[b])
}

// undoTransitive removes p, and every block reachable from p through the
// successor relation, from the done set, returning everything it removed
// (or, for p itself, always returns it even if it was not previously
// done — it must still be re-enqueued). This over-approximates the ideal
// of transitively removing only successors of p reachable through the
// done-set: rather than tracking the induced done-subgraph precisely, it
// walks every reachable successor once and clears done wherever set,
// which is a safe superset (it can only cause harmless extra
// re-evaluation, never miss a block that must be redone).
func (d *Driver) undoTransitive(p ir.BlockID) []ir.BlockID {
	undone := []ir.BlockID{p}
	d.clearDone(p)

	visited := map[ir.BlockID]bool{p: true}
	var walk func(b ir.BlockID)
	walk = func(b ir.BlockID) {
		for _, s := range d.cfg.Successors(b) {
			if visited[s] {
				continue
			}
			visited[s] = true
			if d.isDone(s) {
				d.clearDone(s)
				undone = append(undone, s)
			}
			walk(s)
		}
	}
	walk(p)
	return undone
}

func (d *Driver) evaluateAndStore(b ir.BlockID, before *state.Context) (bool, error) {
	ev := &evaluator{fn: d.fn, block: b, layout: d.layout, diag: d.diag}
	after, ok, err := ev.run(before)
	if err != nil {
		return false, err
	}
	d.after[b] = after
	return ok, nil
}

// entryContext synthesizes the function's before-context from its
// parameter conventions.
func (d *Driver) entryContext() (*state.Context, error) {
	ctx := state.NewContext()
	for i, param := range d.fn.Params {
		key := ir.ParamKey(i)
		switch param.Convention {
		case ir.Let, ir.Inout:
			ctx.SetLocal(key, state.Locations(ir.Arg(i)))
			ctx.SetCell(ir.Arg(i), state.Cell{Type: param.Type, Object: lattice.Full(lattice.InitializedState)})
		case ir.Set:
			ctx.SetLocal(key, state.Locations(ir.Arg(i)))
			ctx.SetCell(ir.Arg(i), state.Cell{Type: param.Type, Object: lattice.Full(lattice.UninitializedState)})
		case ir.Sink:
			ctx.SetLocal(key, state.ObjectValue(lattice.Full(lattice.InitializedState)))
		case ir.Yielded:
			return nil, violation("entryContext", "parameter %d has the yielded convention, which is not representable", i)
		default:
			return nil, violation("entryContext", "parameter %d has an unrecognized convention", i)
		}
	}
	return ctx, nil
}
