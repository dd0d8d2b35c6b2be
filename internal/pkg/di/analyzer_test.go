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
)

func uninitFunction(id ir.FunctionID) *ir.Function {
	b := ir.NewBuilder(id)
	blk := b.Block()
	x := blk.AllocStack(intType, rng)
	blk.Borrow(ir.Let, x, nil, rng)
	blk.Return(nil, rng)
	return b.Build()
}

func cleanFunction(id ir.FunctionID) *ir.Function {
	b := ir.NewBuilder(id)
	blk := b.Block()
	blk.Return(nil, rng)
	return b.Build()
}

func TestAnalyzerAggregatesAcrossFunctions(t *testing.T) {
	mod := ir.NewModule()
	mod.Add(cleanFunction("a_ok"))
	mod.Add(uninitFunction("b_bad"))

	res, err := di.Run(mod, ir.TypedProgram{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.OK {
		t.Fatal("expected overall result to be false, one function has a diagnostic")
	}
	if diag := res.Diagnostics["a_ok"]; diag == nil || diag.Failed() {
		t.Fatalf("a_ok should have no diagnostics, got %v", diag)
	}
	if diag := res.Diagnostics["b_bad"]; diag == nil || !diag.Failed() {
		t.Fatal("b_bad should have a diagnostic")
	}
}

func TestAnalyzerRespectsExcludeConfig(t *testing.T) {
	mod := ir.NewModule()
	mod.Add(uninitFunction("generated_bad"))

	res, err := di.Run(mod, ir.TypedProgram{}, &di.Config{Exclude: []string{"generated_*"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK {
		t.Fatal("excluded function's diagnostic should not affect the overall result")
	}
	if _, ok := res.Diagnostics["generated_bad"]; ok {
		t.Fatal("excluded function should not appear in the result at all")
	}
}

func TestAnalyzerIdentity(t *testing.T) {
	if di.Analyzer.Name != "Definite initialization" {
		t.Fatalf("Analyzer.Name = %q, want %q", di.Analyzer.Name, "Definite initialization")
	}
}

func TestConfigSetBytesAndExclude(t *testing.T) {
	if err := di.SetConfigBytes([]byte("exclude:\n  - foo\n  - bar_*\n")); err != nil {
		t.Fatalf("SetConfigBytes: %v", err)
	}
	cfg, err := di.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[0] != "foo" || cfg.Exclude[1] != "bar_*" {
		t.Fatalf("Exclude = %v, want [foo bar_*]", cfg.Exclude)
	}
}
