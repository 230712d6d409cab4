// Package weaver is the library entry point tying the Collector and
// Injector into the single pass described by spec §4: given a program and
// the external verifier's residual-check table and statement trace, it
// returns a program with every collected check actually executing.
//
// Grounded on the teacher's cmd/kanso-cli/main.go driver shape (read input,
// run the pass, report errors), collapsed here into a library call rather
// than a CLI main so that both cmd/weave and repl/ can share it.
package weaver

import (
	"weaver/internal/collector"
	"weaver/internal/injector"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// Weave runs the Collector over program using table and trace, then runs
// the Injector over the result, returning the rewritten program.
func Weave(program *ir.Program, table residual.Table, trace residual.ProgramTrace) (*ir.Program, error) {
	cp, err := collector.Collect(program, table, trace)
	if err != nil {
		return nil, err
	}
	return injector.Inject(program, cp)
}
