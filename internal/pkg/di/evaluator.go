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

// evaluator is the transfer function: for each instruction in a block, it
// reads operands, updates ctx, may emit a diagnostic (stopping the block
// after the current instruction), and may insert repair instructions
// immediately before the current instruction.
type evaluator struct {
	fn     *ir.Function
	block  ir.BlockID
	layout ir.TypedProgram
	diag   *Diagnostics
}

// run evaluates every instruction of the block in order, starting from
// before (which it does not mutate), and returns the resulting after
// context. ok is false iff a diagnostic was emitted, in which case
// evaluation of the block stopped at the failing instruction.
func (e *evaluator) run(before *state.Context) (after *state.Context, ok bool, err error) {
	ctx := before.Clone()
	blk := e.fn.Block(e.block)
	if blk == nil {
		return nil, false, violation("evaluator.run", "block %d not found", e.block)
	}
	for _, instr := range blk.Instrs {
		stepOK, stepErr := e.step(ctx, instr)
		if stepErr != nil {
			return nil, false, stepErr
		}
		if !stepOK {
			return ctx, false, nil
		}
	}
	return ctx, true, nil
}

func (e *evaluator) step(ctx *state.Context, instr ir.Instruction) (bool, error) {
	switch in := instr.(type) {
	case ir.AllocStackInst:
		return e.evalAllocStack(ctx, in)
	case ir.BorrowInst:
		return e.evalBorrow(ctx, in)
	case ir.LoadInst:
		return e.evalLoad(ctx, in)
	case ir.StoreInst:
		return e.evalStore(ctx, in)
	case ir.RecordInst:
		return e.evalRecord(ctx, in)
	case ir.DestructureInst:
		return e.evalDestructure(ctx, in)
	case ir.CallInst:
		return e.evalCall(ctx, in)
	case ir.DeinitInst:
		return e.evalDeinit(ctx, in)
	case ir.DeallocStackInst:
		return e.evalDeallocStack(ctx, in)
	case ir.CondBranchInst:
		return e.consumeOperand(ctx, in.Cond, in.ID(), in.Range())
	case ir.ReturnInst:
		if in.Value == nil {
			return true, nil
		}
		return e.consumeOperand(ctx, *in.Value, in.ID(), in.Range())
	case ir.BranchInst, ir.EndBorrowInst, ir.UnreachableInst:
		return true, nil
	default:
		return false, violation("evaluator.step", "unrecognized opcode %s", instr.Opcode())
	}
}

func (e *evaluator) evalAllocStack(ctx *state.Context, in ir.AllocStackInst) (bool, error) {
	loc := ir.Inst(e.block, in.ID())
	if _, present := ctx.Cell(loc); present {
		e.diag.add(msgUnboundedStackAllocation, in.Range())
		return false, nil
	}
	ctx.SetCell(loc, state.Cell{Type: in.Type, Object: lattice.Full(lattice.UninitializedState)})
	ctx.SetLocal(in.Result, state.Locations(loc))
	return true, nil
}

func (e *evaluator) evalBorrow(ctx *state.Context, in ir.BorrowInst) (bool, error) {
	src, ok := ctx.Local(in.Source)
	if !ok || !src.IsLocations() {
		return false, violation("evalBorrow", "borrow source %s is not a Locations value", in.Source)
	}
	roots := src.SortedLocations()
	targets := make([]ir.Location, len(roots))
	for i, r := range roots {
		targets[i] = ir.Append(r, in.Path)
	}

	switch in.Capability {
	case ir.Yielded:
		return false, violation("evalBorrow", "yielded convention is not representable as a borrow capability")
	case ir.Let, ir.Inout:
		for _, loc := range targets {
			summary, err := e.summaryAt(ctx, loc)
			if err != nil {
				return false, err
			}
			if summary.Kind != lattice.FullyInitialized {
				e.diag.add(useMessage(summary.Kind), in.Range())
				return false, nil
			}
		}
	case ir.Set:
		for _, loc := range targets {
			if err := e.repairForSetBorrow(ctx, loc, in); err != nil {
				return false, err
			}
		}
	default:
		return false, violation("evalBorrow", "unrecognized borrow capability %s", in.Capability)
	}

	ctx.SetLocal(in.Result, state.Locations(targets...))
	return true, nil
}

// repairForSetBorrow inserts load+deinit for every initialized path of the
// object at loc, then forces loc's state to Full(Uninitialized), which is
// what a "set" borrow requires of its target before the borrow begins.
func (e *evaluator) repairForSetBorrow(ctx *state.Context, loc ir.Location, in ir.BorrowInst) error {
	root, path := ir.RootAndPath(loc)
	cell, ok := ctx.Cell(root)
	if !ok {
		return violation("repairForSetBorrow", "no cell at %s", root)
	}
	rootObj, err := projectObject(e.layout, cell.Type, cell.Object, path)
	if err != nil {
		return err
	}
	paths := initializedRelativePaths(lattice.Summarize(rootObj))
	slices.SortFunc(paths, func(a, b lattice.Path) bool { return a.String() < b.String() })

	for _, p := range paths {
		fullPath := appendPath(path, p)
		elemType, _, err := e.layout.AbstractLayout(cell.Type, fullPath)
		if err != nil {
			return err
		}
		loadID := e.fn.NewInstID()
		loadResult := ir.ResultKey(loadID, 0)
		loadInstr := ir.NewLoadInst(loadID, in.Range(), loadResult, elemType, in.Source, fullPath)
		if err := ir.InsertBefore(e.fn, in, loadInstr); err != nil {
			return err
		}
		if err := e.applyLoadEffect(ctx, loadInstr, root, loadID); err != nil {
			return err
		}

		deinitID := e.fn.NewInstID()
		deinitInstr := ir.NewDeinitInst(deinitID, in.Range(), ir.Reg(loadResult))
		if err := ir.InsertBefore(e.fn, in, deinitInstr); err != nil {
			return err
		}
		ok, err := e.consumeLocal(ctx, loadResult, deinitID)
		if err != nil {
			return err
		}
		if !ok {
			return violation("repairForSetBorrow", "repair load %d was not FullyInitialized", loadID)
		}
	}

	cell, _ = ctx.Cell(root)
	newRootObj, err := rewriteObject(e.layout, cell.Type, cell.Object, path, func(lattice.Object) (lattice.Object, error) {
		return lattice.Full(lattice.UninitializedState), nil
	})
	if err != nil {
		return err
	}
	ctx.SetCell(root, state.Cell{Type: cell.Type, Object: newRootObj})
	return nil
}

// applyLoadEffect mirrors the load opcode's context update for a
// repair-inserted load whose source is already known to be the single
// location root+path.
func (e *evaluator) applyLoadEffect(ctx *state.Context, in ir.LoadInst, root ir.Location, consumer lattice.InstID) error {
	cell, ok := ctx.Cell(root)
	if !ok {
		return violation("applyLoadEffect", "no cell at %s", root)
	}
	newObj, err := rewriteObject(e.layout, cell.Type, cell.Object, in.Path, func(o lattice.Object) (lattice.Object, error) {
		if lattice.Summarize(o).Kind != lattice.FullyInitialized {
			return lattice.Object{}, violation("applyLoadEffect", "repair load target is not fully initialized")
		}
		return lattice.Full(lattice.ConsumedBy(consumer)), nil
	})
	if err != nil {
		return err
	}
	ctx.SetCell(root, state.Cell{Type: cell.Type, Object: newObj})
	ctx.SetLocal(in.Result, state.ObjectValue(lattice.Full(lattice.InitializedState)))
	return nil
}

func (e *evaluator) evalLoad(ctx *state.Context, in ir.LoadInst) (bool, error) {
	src, ok := ctx.Local(in.Source)
	if !ok || !src.IsLocations() {
		return false, violation("evalLoad", "load source %s is not a Locations value", in.Source)
	}
	roots := src.SortedLocations()
	targets := make([]ir.Location, len(roots))
	for i, r := range roots {
		targets[i] = ir.Append(r, in.Path)
	}
	for _, loc := range targets {
		summary, err := e.summaryAt(ctx, loc)
		if err != nil {
			return false, err
		}
		if summary.Kind != lattice.FullyInitialized {
			e.diag.add(useMessage(summary.Kind), in.Range())
			return false, nil
		}
	}
	for _, loc := range targets {
		if err := e.setObjectAt(ctx, loc, lattice.Full(lattice.ConsumedBy(in.ID()))); err != nil {
			return false, err
		}
	}
	ctx.SetLocal(in.Result, state.ObjectValue(lattice.Full(lattice.InitializedState)))
	return true, nil
}

func (e *evaluator) evalStore(ctx *state.Context, in ir.StoreInst) (bool, error) {
	ok, err := e.consumeOperand(ctx, in.Object, in.ID(), in.Range())
	if err != nil || !ok {
		return ok, err
	}
	tgt, present := ctx.Local(in.Target)
	if !present || !tgt.IsLocations() {
		return false, violation("evalStore", "store target %s is not a Locations value", in.Target)
	}
	for _, loc := range tgt.SortedLocations() {
		if err := e.setObjectAt(ctx, loc, lattice.Full(lattice.InitializedState)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (e *evaluator) evalRecord(ctx *state.Context, in ir.RecordInst) (bool, error) {
	for _, op := range in.Operands {
		ok, err := e.consumeOperand(ctx, op, in.ID(), in.Range())
		if err != nil || !ok {
			return ok, err
		}
	}
	ctx.SetLocal(in.Result, state.ObjectValue(lattice.Full(lattice.InitializedState)))
	return true, nil
}

func (e *evaluator) evalDestructure(ctx *state.Context, in ir.DestructureInst) (bool, error) {
	ok, err := e.consumeOperand(ctx, in.Object, in.ID(), in.Range())
	if err != nil || !ok {
		return ok, err
	}
	for _, r := range in.Results {
		ctx.SetLocal(r, state.ObjectValue(lattice.Full(lattice.InitializedState)))
	}
	return true, nil
}

func (e *evaluator) evalCall(ctx *state.Context, in ir.CallInst) (bool, error) {
	if len(in.Operands) != len(in.Conventions) {
		return false, violation("evalCall", "call has %d operands but %d conventions", len(in.Operands), len(in.Conventions))
	}
	for i, op := range in.Operands {
		switch in.Conventions[i] {
		case ir.Let, ir.Inout, ir.Set:
			// no operand-state effect
		case ir.Sink:
			ok, err := e.consumeOperand(ctx, op, in.ID(), in.Range())
			if err != nil || !ok {
				return ok, err
			}
		case ir.Yielded:
			return false, violation("evalCall", "yielded convention is not representable in a call")
		default:
			return false, violation("evalCall", "unrecognized convention %s", in.Conventions[i])
		}
	}
	ctx.SetLocal(in.Result, state.ObjectValue(lattice.Full(lattice.InitializedState)))
	return true, nil
}

func (e *evaluator) evalDeinit(ctx *state.Context, in ir.DeinitInst) (bool, error) {
	return e.consumeOperand(ctx, in.Object, in.ID(), in.Range())
}

func (e *evaluator) evalDeallocStack(ctx *state.Context, in ir.DeallocStackInst) (bool, error) {
	v, ok := ctx.Local(in.Location)
	if !ok || !v.IsLocations() {
		return false, violation("evalDeallocStack", "dealloc_stack target %s is not a Locations value", in.Location)
	}
	for _, loc := range v.SortedLocations() {
		root, path := ir.RootAndPath(loc)
		if len(path) != 0 {
			return false, violation("evalDeallocStack", "dealloc_stack target must be a raw alloc_stack cell, got sub-location %s", loc)
		}
		cell, present := ctx.Cell(root)
		if !present {
			return false, violation("evalDeallocStack", "no cell at %s", root)
		}
		paths := initializedRelativePaths(lattice.Summarize(cell.Object))
		slices.SortFunc(paths, func(a, b lattice.Path) bool { return a.String() < b.String() })
		for _, p := range paths {
			elemType, _, err := e.layout.AbstractLayout(cell.Type, p)
			if err != nil {
				return false, err
			}
			loadID := e.fn.NewInstID()
			loadResult := ir.ResultKey(loadID, 0)
			loadInstr := ir.NewLoadInst(loadID, in.Range(), loadResult, elemType, in.Location, p)
			if err := ir.InsertBefore(e.fn, in, loadInstr); err != nil {
				return false, err
			}
			if err := e.applyLoadEffect(ctx, loadInstr, root, loadID); err != nil {
				return false, err
			}
			deinitID := e.fn.NewInstID()
			deinitInstr := ir.NewDeinitInst(deinitID, in.Range(), ir.Reg(loadResult))
			if err := ir.InsertBefore(e.fn, in, deinitInstr); err != nil {
				return false, err
			}
			if ok, err := e.consumeLocal(ctx, loadResult, deinitID); err != nil {
				return false, err
			} else if !ok {
				return false, violation("evalDeallocStack", "repair load %d was not FullyInitialized", loadID)
			}
		}
		ctx.DeleteCell(root)
	}
	return true, nil
}

// consumeOperand applies consume() to op, skipping constants — a
// constant operand (e.g. a literal argument to record or call) has
// nothing live to consume.
func (e *evaluator) consumeOperand(ctx *state.Context, op ir.Operand, by lattice.InstID, rng ir.SourceRange) (bool, error) {
	if op.IsConstant {
		return true, nil
	}
	ok, err := e.consumeLocal(ctx, op.Reg, by)
	if err != nil {
		return false, err
	}
	if !ok {
		e.diag.add(msgIllegalMove, rng)
		return false, nil
	}
	return true, nil
}

// consumeLocal implements consume(key, by): if locals[key] is FullyInitialized,
// transitions it to Consumed and succeeds; otherwise fails.
func (e *evaluator) consumeLocal(ctx *state.Context, key ir.RegisterKey, by lattice.InstID) (bool, error) {
	v, ok := ctx.Local(key)
	if !ok || !v.IsObject() {
		return false, violation("consumeLocal", "local %s is not an Object value", key)
	}
	if lattice.Summarize(v.Object()).Kind != lattice.FullyInitialized {
		return false, nil
	}
	ctx.SetLocal(key, state.ObjectValue(lattice.Full(lattice.ConsumedBy(by))))
	return true, nil
}

// summaryAt projects loc down to its root+path and summarizes the
// sub-object found there.
func (e *evaluator) summaryAt(ctx *state.Context, loc ir.Location) (lattice.Summary, error) {
	root, path := ir.RootAndPath(loc)
	cell, ok := ctx.Cell(root)
	if !ok {
		return lattice.Summary{}, violation("summaryAt", "no cell at %s", root)
	}
	obj, err := projectObject(e.layout, cell.Type, cell.Object, path)
	if err != nil {
		return lattice.Summary{}, err
	}
	return lattice.Summarize(obj), nil
}

// setObjectAt overwrites the sub-object at loc with s, writing back
// through to the root cell.
func (e *evaluator) setObjectAt(ctx *state.Context, loc ir.Location, s lattice.State) error {
	root, path := ir.RootAndPath(loc)
	cell, ok := ctx.Cell(root)
	if !ok {
		return violation("setObjectAt", "no cell at %s", root)
	}
	newObj, err := rewriteObject(e.layout, cell.Type, cell.Object, path, func(lattice.Object) (lattice.Object, error) {
		return lattice.Full(s), nil
	})
	if err != nil {
		return err
	}
	ctx.SetCell(root, state.Cell{Type: cell.Type, Object: newObj})
	return nil
}

// projectObject reads the sub-object of obj (of type typ) at path,
// disaggregating lazily as needed, without writing back.
func projectObject(layout ir.TypedProgram, typ ir.Type, obj lattice.Object, path lattice.Path) (lattice.Object, error) {
	var result lattice.Object
	_, err := rewriteObject(layout, typ, obj, path, func(o lattice.Object) (lattice.Object, error) {
		result = o
		return o, nil
	})
	return result, err
}

// rewriteObject walks path into obj (of type typ), disaggregating Full
// views lazily at each step, applies f to the projected sub-object, and
// writes the result back up the tree, asserting offset >= 0 at each step.
func rewriteObject(layout ir.TypedProgram, typ ir.Type, obj lattice.Object, path lattice.Path, f func(lattice.Object) (lattice.Object, error)) (lattice.Object, error) {
	if len(path) == 0 {
		return f(obj)
	}
	i := path[0]
	if i < 0 {
		return lattice.Object{}, violation("rewriteObject", "negative path offset %d", i)
	}
	elemType, _, err := layout.AbstractLayout(typ, lattice.Path{i})
	if err != nil {
		return lattice.Object{}, err
	}
	n := typ.NumFields()
	disagg := lattice.Disaggregate(obj, n)
	parts := disagg.Parts()
	newPart, err := rewriteObject(layout, elemType, parts[i], path[1:], f)
	if err != nil {
		return lattice.Object{}, err
	}
	return disagg.WithPart(i, newPart), nil
}

// initializedRelativePaths extracts the repair-worthy initialized paths
// from a summary: the whole object (nil path) when FullyInitialized, the
// explicit leaf list when Partially{Initialized,Consumed}, or none
// otherwise. Used by both "set" borrow and "dealloc_stack" repairs.
func initializedRelativePaths(s lattice.Summary) []lattice.Path {
	switch s.Kind {
	case lattice.FullyInitialized:
		return []lattice.Path{nil}
	case lattice.PartiallyInitialized, lattice.PartiallyConsumed:
		return append([]lattice.Path(nil), s.InitializedPaths...)
	default:
		return nil
	}
}

func appendPath(a, b lattice.Path) lattice.Path {
	out := make(lattice.Path, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
