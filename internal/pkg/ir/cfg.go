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

// Successors returns the blocks b's terminator can transfer control to.
// It is a precondition violation for b to be empty or end in anything
// other than one of branch/cond_branch/return/unreachable.
func Successors(fn *Function, b BlockID) ([]BlockID, error) {
	blk := fn.Block(b)
	if blk == nil {
		return nil, violation("Successors", "block %d not found", b)
	}
	term := blk.Terminator()
	if term == nil {
		return nil, violation("Successors", "block %d has no instructions", b)
	}
	switch t := term.(type) {
	case BranchInst:
		return []BlockID{t.Target}, nil
	case CondBranchInst:
		return []BlockID{t.Then, t.Else}, nil
	case ReturnInst, UnreachableInst:
		return nil, nil
	default:
		return nil, violation("Successors", "block %d does not end in a terminator (found %s)", b, term.Opcode())
	}
}

// CFG is a precomputed predecessor/successor view of a Function.
type CFG struct {
	fn    *Function
	succs map[BlockID][]BlockID
	preds map[BlockID][]BlockID
}

// BuildCFG computes the successor/predecessor maps for every block in fn.
func BuildCFG(fn *Function) (*CFG, error) {
	cfg := &CFG{
		fn:    fn,
		succs: map[BlockID][]BlockID{},
		preds: map[BlockID][]BlockID{},
	}
	for _, b := range fn.Blocks {
		cfg.preds[b.ID] = nil
	}
	for _, b := range fn.Blocks {
		succs, err := Successors(fn, b.ID)
		if err != nil {
			return nil, err
		}
		cfg.succs[b.ID] = succs
		for _, s := range succs {
			cfg.preds[s] = append(cfg.preds[s], b.ID)
		}
	}
	return cfg, nil
}

func (c *CFG) Successors(b BlockID) []BlockID   { return c.succs[b] }
func (c *CFG) Predecessors(b BlockID) []BlockID { return c.preds[b] }
