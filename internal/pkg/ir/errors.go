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

import "fmt"

// PreconditionError reports an ill-formed-IR condition: an unreachable
// block with no immediate dominator, a non-representable convention
// (yielded), an unrecognized opcode, or an internal lattice inconsistency
// such as two cells at merged locations disagreeing on type. These are
// unrecoverable — they indicate a bug in an earlier pass, not in user
// code — so the pass halts rather than emitting a diagnostic for them.
type PreconditionError struct {
	Where string
	Msg   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violation in %s: %s", e.Where, e.Msg)
}

func violation(where, format string, args ...interface{}) error {
	return &PreconditionError{Where: where, Msg: fmt.Sprintf(format, args...)}
}
