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

import (
	"strconv"

	"github.com/val-lang/valc/internal/pkg/lattice"
)

// Convention is a parameter-passing mode. Borrow instructions use
// Let/Inout/Set/Yielded as their capability; call instructions
// additionally use Sink.
type Convention int

const (
	Let Convention = iota
	Inout
	Set
	Sink
	Yielded
)

func (c Convention) String() string {
	switch c {
	case Let:
		return "let"
	case Inout:
		return "inout"
	case Set:
		return "set"
	case Sink:
		return "sink"
	case Yielded:
		return "yielded"
	default:
		return "convention(?)"
	}
}

// Opcode enumerates the instructions the pass recognizes. Any other
// opcode is a precondition violation.
type Opcode int

const (
	OpAllocStack Opcode = iota
	OpBorrow
	OpCondBranch
	OpCall
	OpDeallocStack
	OpDeinit
	OpDestructure
	OpLoad
	OpRecord
	OpReturn
	OpStore
	OpBranch
	OpEndBorrow
	OpUnreachable
)

func (op Opcode) String() string {
	names := [...]string{
		"alloc_stack", "borrow", "cond_branch", "call", "dealloc_stack",
		"deinit", "destructure", "load", "record", "return", "store",
		"branch", "end_borrow", "unreachable",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "opcode(?)"
}

// SourceRange is the originating source span of an instruction; only the
// first character is used to anchor diagnostics, but a window is kept
// for the optional display.
type SourceRange struct {
	File      string
	Line, Col int
	Window    string
}

// RegKind distinguishes a function parameter slot from an instruction
// result, since a single instruction (destructure) may produce more than
// one register.
type RegKind int

const (
	RegParam RegKind = iota
	RegResult
)

// RegisterKey names a local register: either the i-th parameter, or the
// index-th result produced by instruction Inst.
type RegisterKey struct {
	Kind  RegKind
	Param int
	Inst  lattice.InstID
	Index int
}

func ParamKey(i int) RegisterKey { return RegisterKey{Kind: RegParam, Param: i} }

func ResultKey(id lattice.InstID, index int) RegisterKey {
	return RegisterKey{Kind: RegResult, Inst: id, Index: index}
}

func (k RegisterKey) String() string {
	if k.Kind == RegParam {
		return paramRegName(k.Param)
	}
	if k.Index == 0 {
		return instRegName(k.Inst)
	}
	return instRegName(k.Inst) + "#" + strconv.Itoa(k.Index)
}

// Operand is a call/record/return operand: a register, or a constant (in
// which case Reg is the zero value and must not be used).
type Operand struct {
	Reg        RegisterKey
	IsConstant bool
}

// Instruction is the common interface every concrete opcode struct
// implements.
type Instruction interface {
	ID() lattice.InstID
	Opcode() Opcode
	Range() SourceRange
}

type instBase struct {
	Inst lattice.InstID
	Src  SourceRange
}

func (b instBase) ID() lattice.InstID { return b.Inst }
func (b instBase) Range() SourceRange { return b.Src }

// AllocStackInst := "result = alloc_stack T".
type AllocStackInst struct {
	instBase
	Result RegisterKey
	Type   Type
}

func (AllocStackInst) Opcode() Opcode { return OpAllocStack }

// BorrowInst := "result = borrow(capability, source, path)".
type BorrowInst struct {
	instBase
	Result     RegisterKey
	Capability Convention
	Source     RegisterKey
	Path       lattice.Path
}

func (BorrowInst) Opcode() Opcode { return OpBorrow }

// LoadInst := "result = load(type, source, path)".
type LoadInst struct {
	instBase
	Result    RegisterKey
	ValueType Type
	Source    RegisterKey
	Path      lattice.Path
}

func (LoadInst) Opcode() Opcode { return OpLoad }

// NewLoadInst builds a load instruction with an explicit id. Passes
// synthesizing repair instructions (di's set-borrow, dealloc_stack, and
// edge-reconciliation repairs) cannot set instBase directly since it is
// unexported, so they go through this constructor instead.
func NewLoadInst(id lattice.InstID, rng SourceRange, result RegisterKey, valueType Type, source RegisterKey, path lattice.Path) LoadInst {
	return LoadInst{instBase: instBase{Inst: id, Src: rng}, Result: result, ValueType: valueType, Source: source, Path: path}
}

// StoreInst := "store(object, target)".
type StoreInst struct {
	instBase
	Object   Operand
	Target   RegisterKey
}

func (StoreInst) Opcode() Opcode { return OpStore }

// RecordInst := "result = record(operands...)".
type RecordInst struct {
	instBase
	Result   RegisterKey
	Operands []Operand
}

func (RecordInst) Opcode() Opcode { return OpRecord }

// DestructureInst := "results... = destructure(object)".
type DestructureInst struct {
	instBase
	Results []RegisterKey
	Object  Operand
}

func (DestructureInst) Opcode() Opcode { return OpDestructure }

// CallInst := "result = call(operands, conventions)".
type CallInst struct {
	instBase
	Result      RegisterKey
	Operands    []Operand
	Conventions []Convention
}

func (CallInst) Opcode() Opcode { return OpCall }

// DeinitInst := "deinit(object)".
type DeinitInst struct {
	instBase
	Object Operand
}

func (DeinitInst) Opcode() Opcode { return OpDeinit }

// NewDeinitInst builds a deinit instruction with an explicit id; see
// NewLoadInst for why repair code needs this rather than a literal.
func NewDeinitInst(id lattice.InstID, rng SourceRange, obj Operand) DeinitInst {
	return DeinitInst{instBase: instBase{Inst: id, Src: rng}, Object: obj}
}

// DeallocStackInst := "dealloc_stack(location)". The operand is the
// register holding the Locations value produced by the dominating
// alloc_stack.
type DeallocStackInst struct {
	instBase
	Location RegisterKey
}

func (DeallocStackInst) Opcode() Opcode { return OpDeallocStack }

// CondBranchInst := "cond_branch(condition)".
type CondBranchInst struct {
	instBase
	Cond       Operand
	Then, Else BlockID
}

func (CondBranchInst) Opcode() Opcode { return OpCondBranch }

// ReturnInst := "return(value?)".
type ReturnInst struct {
	instBase
	Value *Operand
}

func (ReturnInst) Opcode() Opcode { return OpReturn }

// BranchInst := unconditional "branch".
type BranchInst struct {
	instBase
	Target BlockID
}

func (BranchInst) Opcode() Opcode { return OpBranch }

// EndBorrowInst := "end_borrow" — has no effect on the lattice.
type EndBorrowInst struct {
	instBase
	Borrowed RegisterKey
}

func (EndBorrowInst) Opcode() Opcode { return OpEndBorrow }

// UnreachableInst := "unreachable" — has no effect on the lattice.
type UnreachableInst struct {
	instBase
}

func (UnreachableInst) Opcode() Opcode { return OpUnreachable }

// IsTerminator reports whether op ends a basic block.
func IsTerminator(op Opcode) bool {
	switch op {
	case OpCondBranch, OpReturn, OpBranch, OpUnreachable:
		return true
	default:
		return false
	}
}

func paramRegName(i int) string            { return "p" + strconv.Itoa(i) }
func instRegName(id lattice.InstID) string { return "t" + strconv.Itoa(int(id)) }
