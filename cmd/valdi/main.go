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

// Command valdi reports the definite-initialization pass's identity and
// validates its configuration file.
//
// valdi has no compiler front end of its own to load a module from, so it
// cannot run the pass end to end by itself: it parses flags, loads the
// exclusion config, and prints what it found. A real embedding compiler's
// driver builds an ir.Module and calls di.Analyzer.Run (or di.Run)
// directly; this binary exists to let that config file be checked in
// isolation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/val-lang/valc/pkg/di"
)

func main() {
	di.Analyzer.Flags.VisitAll(func(f *flag.Flag) {
		if flag.Lookup(f.Name) == nil {
			flag.Var(f.Value, f.Name, f.Usage)
		}
	})
	flag.Parse()

	cfg, err := di.ReadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "valdi: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("%s: configuration loaded (%d exclusion pattern(s))\n", di.Analyzer.Name, len(cfg.Exclude))
	fmt.Println("valdi is a library pass; embed github.com/val-lang/valc/pkg/di and call di.Run(mod, layout, cfg) from your compiler's driver.")
}
