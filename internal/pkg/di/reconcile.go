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
	"golang.org/x/exp/slices"

	"github.com/val-lang/valc/internal/pkg/ir"
	"github.com/val-lang/valc/internal/pkg/lattice"
	"github.com/val-lang/valc/internal/pkg/state"
)

// mergeResult is what reconcileBefore hands back to the driver: the
// before-context for the block being visited, and the ids of any
// predecessor whose tail got a repair instruction spliced in (and must
// therefore be re-evaluated before the driver can trust it again).
type mergeResult struct {
	before  *state.Context
	dirtied []ir.BlockID
}

// reconcileBefore implements edge reconciliation: the rule that turns
// however many predecessor after-contexts a block has into the single
// before-context its evaluator runs from:
//
//  1. A predecessor that has already produced an after-context contributes
//     it verbatim ("visited"); one that has not yet run (only possible for
//     a loop back-edge, since the driver never visits a block before its
//     dominator-required predecessors are ready) contributes the
//     after-context of b's own immediate dominator instead.
//  2. Structurally identical contributions are deduplicated.
//  3. Zero contributions -> an empty context (only the unreachable case);
//     one -> that context verbatim; more than one -> folded pairwise with
//     Context.Join.
//  4. Repair pass: any visited predecessor whose stored after-context
//     disagrees with the folded before-context on a live local gets a
//     physical fixup spliced into its tail, and is reported back as
//     dirtied so the driver re-evaluates it.
func (d *Driver) reconcileBefore(b ir.BlockID) (*mergeResult, error) {
	preds := d.cfg.Predecessors(b)
	if len(preds) == 0 {
		return &mergeResult{before: state.NewContext()}, nil
	}

	type source struct {
		ctx     *state.Context
		pred    ir.BlockID
		visited bool
	}
	sources := make([]source, 0, len(preds))
	for _, p := range preds {
		if a, ok := d.after[p]; ok {
			sources = append(sources, source{ctx: a, pred: p, visited: true})
			continue
		}
		idom, ok := d.dom.Idom(b)
		if !ok {
			return nil, violation("reconcileBefore", "block %d has no immediate dominator", b)
		}
		a, ok := d.after[idom]
		if !ok {
			return nil, violation("reconcileBefore", "immediate dominator %d of block %d has no after-context yet", idom, b)
		}
		sources = append(sources, source{ctx: a, pred: p, visited: false})
	}

	var distinct []*state.Context
	for _, s := range sources {
		dup := false
		for _, d2 := range distinct {
			if d2.Equal(s.ctx) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, s.ctx)
		}
	}

	merged := distinct[0]
	for _, s := range distinct[1:] {
		var err error
		merged, err = merged.Join(s)
		if err != nil {
			return nil, err
		}
	}

	var dirtied []ir.BlockID
	for _, s := range sources {
		if !s.visited {
			continue
		}
		changed, err := d.repairPredecessor(s.pred, s.ctx, merged)
		if err != nil {
			return nil, err
		}
		if changed {
			dirtied = append(dirtied, s.pred)
		}
	}
	return &mergeResult{before: merged, dirtied: dirtied}, nil
}

// repairPredecessor compares p's stored after-context (exit) against the
// freshly folded before-context at the merge point (entry), and splices
// physical repair instructions into p's tail for every local that
// disagrees. It reports whether it changed anything; it never mutates
// exit or entry themselves — the driver re-evaluates p from scratch to
// pick up the effect of whatever it just inserted.
func (d *Driver) repairPredecessor(p ir.BlockID, exit, entry *state.Context) (bool, error) {
	pBlock := d.fn.Block(p)
	if pBlock == nil {
		return false, violation("repairPredecessor", "block %d not found", p)
	}
	term := pBlock.Terminator()
	if term == nil {
		return false, violation("repairPredecessor", "block %d has no terminator", p)
	}
	rng := term.Range()

	entryLocals := entry.Locals()
	keys := make([]ir.RegisterKey, 0, len(entryLocals))
	for k := range entryLocals {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ir.RegisterKey) bool { return a.String() < b.String() })

	changed := false
	for _, k := range keys {
		ev, ok := exit.Local(k)
		if !ok {
			return false, violation("repairPredecessor", "live local %s missing from predecessor %d's exit context", k, p)
		}
		mv, _ := entry.Local(k)
		if ev.IsObject() != mv.IsObject() {
			return false, violation("repairPredecessor", "local %s changes kind (Locations/Object) across a merge", k)
		}

		if ev.IsObject() {
			// Object-valued locals carry their full state in the Value
			// itself, so Equal is a sound skip: no cell lookup hides a
			// divergence the way it can for a Locations-valued local below.
			if ev.Equal(mv) {
				continue
			}
			if !ev.Object().IsFull() || !mv.Object().IsFull() {
				return false, violation("repairPredecessor", "object-valued local %s is not Full at a merge point", k)
			}
			deinitID := d.fn.NewInstID()
			deinitInstr := ir.NewDeinitInst(deinitID, rng, ir.Reg(k))
			if err := ir.InsertBeforeTerminator(d.fn, pBlock, deinitInstr); err != nil {
				return false, err
			}
			changed = true
			continue
		}

		// Locations-valued: the two sides almost always name the same
		// location set (it flows from the same dominating borrow/
		// alloc_stack), so ev.Equal(mv) is never a safe skip here — it
		// only compares which locations are aliased, not what is stored at
		// them. What actually differs is which paths of the pointed-to
		// object are initialized at p's exit vs. the merged entry;
		// difference(exit, entry) below names the paths p must still
		// load+deinit to bring it in line, and is itself a no-op (empty)
		// when nothing has actually diverged.
		locs := ev.SortedLocations()
		if len(locs) == 0 {
			continue
		}
		root, basePath := ir.RootAndPath(locs[0])
		exitCell, ok := exit.Cell(root)
		if !ok {
			return false, violation("repairPredecessor", "no cell at %s in predecessor %d's exit context", root, p)
		}
		entryCell, ok := entry.Cell(root)
		if !ok {
			return false, violation("repairPredecessor", "no cell at %s in merged entry context", root)
		}
		exitObj, err := projectObject(d.layout, exitCell.Type, exitCell.Object, basePath)
		if err != nil {
			return false, err
		}
		entryObj, err := projectObject(d.layout, entryCell.Type, entryCell.Object, basePath)
		if err != nil {
			return false, err
		}
		diffPaths := lattice.Difference(exitObj, entryObj)
		slices.SortFunc(diffPaths, func(a, b lattice.Path) bool { return a.String() < b.String() })
		for _, dp := range diffPaths {
			fullPath := appendPath(basePath, dp)
			elemType, _, err := d.layout.AbstractLayout(exitCell.Type, fullPath)
			if err != nil {
				return false, err
			}
			loadID := d.fn.NewInstID()
			loadResult := ir.ResultKey(loadID, 0)
			loadInstr := ir.NewLoadInst(loadID, rng, loadResult, elemType, k, fullPath)
			if err := ir.InsertBeforeTerminator(d.fn, pBlock, loadInstr); err != nil {
				return false, err
			}
			deinitID := d.fn.NewInstID()
			deinitInstr := ir.NewDeinitInst(deinitID, rng, ir.Reg(loadResult))
			if err := ir.InsertBeforeTerminator(d.fn, pBlock, deinitInstr); err != nil {
				return false, err
			}
			changed = true
		}
	}
	return changed, nil
}
