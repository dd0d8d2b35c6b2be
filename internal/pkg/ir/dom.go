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

import "golang.org/x/tools/container/intsets"

// DominatorTree is the immediate-dominator relation over a Function's CFG,
// computed with the iterative Cooper/Harvey/Kennedy algorithm ("A Simple,
// Fast Dominance Algorithm", Software Practice & Experience 2001) rather
// than the classical Lengauer-Tarjan algorithm: it is simpler to implement
// correctly and fast enough for the function sizes DI analyzes.
type DominatorTree struct {
	entry    BlockID
	idom     map[BlockID]BlockID
	children map[BlockID][]BlockID
	bfs      []BlockID
}

// BuildDominatorTree computes the dominator tree of fn's CFG from its
// entry block. A block unreachable from the entry has no immediate
// dominator; Idom reports that with ok == false, and the CFG driver
// treats that as a precondition violation.
func BuildDominatorTree(fn *Function, cfg *CFG) (*DominatorTree, error) {
	entry := fn.Entry().ID

	postorder, postNum, err := computePostorder(fn, cfg, entry)
	if err != nil {
		return nil, err
	}

	// Reverse postorder, for the main fixed-point loop.
	rpo := make([]BlockID, len(postorder))
	for i, b := range postorder {
		rpo[len(postorder)-1-i] = b
	}

	idom := map[BlockID]BlockID{entry: entry}
	reachable := intsets.Sparse{}
	for _, b := range postorder {
		reachable.Insert(int(b))
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom BlockID
			haveNewIdom := false
			for _, p := range cfg.Predecessors(b) {
				if _, ok := idom[p]; !ok {
					continue // predecessor not yet processed
				}
				if !haveNewIdom {
					newIdom = p
					haveNewIdom = true
					continue
				}
				newIdom = intersect(idom, postNum, newIdom, p)
			}
			if !haveNewIdom {
				continue
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	dt := &DominatorTree{entry: entry, idom: idom, children: map[BlockID][]BlockID{}}
	for b, p := range idom {
		if b != p {
			dt.children[p] = append(dt.children[p], b)
		}
	}
	dt.bfs = dt.buildBFSOrder()
	return dt, nil
}

func intersect(idom map[BlockID]BlockID, postNum map[BlockID]int, b1, b2 BlockID) BlockID {
	f1, f2 := b1, b2
	for f1 != f2 {
		for postNum[f1] < postNum[f2] {
			f1 = idom[f1]
		}
		for postNum[f2] < postNum[f1] {
			f2 = idom[f2]
		}
	}
	return f1
}

// computePostorder DFS-walks the CFG from entry, returning blocks in
// postorder along with a map from block to its postorder index.
func computePostorder(fn *Function, cfg *CFG, entry BlockID) ([]BlockID, map[BlockID]int, error) {
	var order []BlockID
	visited := intsets.Sparse{}

	var visit func(b BlockID) error
	visit = func(b BlockID) error {
		if visited.Has(int(b)) {
			return nil
		}
		visited.Insert(int(b))
		for _, s := range cfg.Successors(b) {
			if err := visit(s); err != nil {
				return err
			}
		}
		order = append(order, b)
		return nil
	}
	if err := visit(entry); err != nil {
		return nil, nil, err
	}

	num := make(map[BlockID]int, len(order))
	for i, b := range order {
		num[b] = i
	}
	return order, num, nil
}

// Idom returns b's immediate dominator. ok is false iff b is unreachable
// from the entry (a precondition violation at the call site).
func (dt *DominatorTree) Idom(b BlockID) (BlockID, bool) {
	idom, ok := dt.idom[b]
	return idom, ok
}

// Dominates reports whether a dominates b (reflexively: a dominates itself).
func (dt *DominatorTree) Dominates(a, b BlockID) bool {
	cur := b
	for {
		if cur == a {
			return true
		}
		parent, ok := dt.idom[cur]
		if !ok {
			return false
		}
		if parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// BFSOrder returns a breadth-first pre-order of the dominator tree, entry
// first — the seed order for the CFG driver's work list.
func (dt *DominatorTree) BFSOrder() []BlockID {
	out := make([]BlockID, len(dt.bfs))
	copy(out, dt.bfs)
	return out
}

func (dt *DominatorTree) buildBFSOrder() []BlockID {
	var order []BlockID
	queue := []BlockID{dt.entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		order = append(order, b)
		queue = append(queue, dt.children[b]...)
	}
	return order
}

// Reachable reports the set of blocks reachable from the entry, i.e. those
// that have an immediate dominator.
func (dt *DominatorTree) Reachable() []BlockID {
	out := make([]BlockID, 0, len(dt.idom))
	for b := range dt.idom {
		out = append(out, b)
	}
	return out
}
