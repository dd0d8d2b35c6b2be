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

// Package di is the public entry point for the definite-initialization
// pass: a thin re-export of the internal implementation, so external
// callers depend on a stable import path rather than reaching into
// internal/pkg/di directly.
package di

import (
	"github.com/val-lang/valc/internal/pkg/di"
	"github.com/val-lang/valc/internal/pkg/ir"
)

// Analyzer is the pass identity.
var Analyzer = di.Analyzer

// Result is the pass's return value: boolean success plus per-function
// diagnostics.
type Result = di.Result

// Diagnostics accumulates the errors emitted during a single function's
// evaluation.
type Diagnostics = di.Diagnostics

// Diagnostic is a single structured error.
type Diagnostic = di.Diagnostic

// Config is the pass's configuration (which functions to skip).
type Config = di.Config

// ReadConfig loads and caches the configuration named by the -config flag.
var ReadConfig = di.ReadConfig

// SetConfigBytes parses bytes and installs the result as the cached
// configuration directly, bypassing the filesystem; for tests.
var SetConfigBytes = di.SetConfigBytes

// Run evaluates every function in mod.
func Run(mod *ir.Module, layout ir.TypedProgram, cfg *Config) (*Result, error) {
	return di.Run(mod, layout, cfg)
}
