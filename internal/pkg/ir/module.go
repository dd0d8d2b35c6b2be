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

// Module is the top-level IR collaborator: random-access to functions by
// id.
type Module struct {
	Functions map[FunctionID]*Function
}

func NewModule() *Module {
	return &Module{Functions: map[FunctionID]*Function{}}
}

func (m *Module) Add(fn *Function) { m.Functions[fn.ID] = fn }

func (m *Module) Function(id FunctionID) (*Function, bool) {
	fn, ok := m.Functions[id]
	return fn, ok
}
