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
	"flag"

	"golang.org/x/exp/slices"

	"github.com/val-lang/valc/internal/pkg/ir"
)

// Result is what the pass hands back on a call to Run: per-function
// diagnostics and the overall boolean verdict.
type Result struct {
	OK          bool
	Diagnostics map[ir.FunctionID]*Diagnostics
}

// Definition is the pass-identity record: name, documentation, and entry
// point. There is no cross-pass sequencing, result-sharing, or fact
// propagation to declare here — this pass runs alone over one module — so
// the record only carries what a standalone pass needs: a name, doc
// string, its flag set, and its entry point.
type Definition struct {
	Name  string
	Doc   string
	Flags *flag.FlagSet
	Run   func(mod *ir.Module, layout ir.TypedProgram, cfg *Config) (*Result, error)
}

// Analyzer is the pass identity.
var Analyzer = &Definition{
	Name: "Definite initialization",
	Doc: `Definite initialization checks that every set/inout parameter, and every
stack allocation, is initialized before use and not used after being
consumed, inserting repair deinitializations at merge points where one
incoming path consumed an object the others still hold live.`,
	Flags: &FlagSet,
	Run:   Run,
}

// Run evaluates every function in mod independently (functions do not
// share state; every invariant this pass maintains is scoped to a single
// function's CFG) and folds their results into one Result. Function
// iteration is sorted by id so that, for a fixed module, the accumulation
// order — and hence anything downstream that cares about order of first
// failure — is a pure function of the input, not of Go's randomized map
// iteration.
func Run(mod *ir.Module, layout ir.TypedProgram, cfg *Config) (*Result, error) {
	ids := make([]ir.FunctionID, 0, len(mod.Functions))
	for id := range mod.Functions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ir.FunctionID) bool { return a < b })

	res := &Result{OK: true, Diagnostics: map[ir.FunctionID]*Diagnostics{}}
	for _, id := range ids {
		fn := mod.Functions[id]
		if cfg != nil && cfg.skips(string(id)) {
			continue
		}
		ok, diag, err := RunFunction(fn, layout)
		if err != nil {
			return nil, err
		}
		res.Diagnostics[id] = diag
		if !ok {
			res.OK = false
		}
	}
	return res, nil
}
