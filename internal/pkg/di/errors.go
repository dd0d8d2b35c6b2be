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
	"fmt"

	"github.com/val-lang/valc/internal/pkg/ir"
)

// violation builds a precondition-violation error in DI's own driver/
// evaluator/reconciliation code, reusing ir.PreconditionError's shape so
// callers across the IR/DI boundary can type-switch uniformly.
func violation(where, format string, args ...interface{}) error {
	return &ir.PreconditionError{Where: where, Msg: fmt.Sprintf(format, args...)}
}
