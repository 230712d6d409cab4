// Package repl is a read-eval-print loop over internal/irtext fixtures.
//
// Grounded on the teacher's repl/repl.go bufio.Scanner loop structure,
// fixed to import this repo's own packages: the teacher's version imports
// a nonexistent "kanso-lang/lexer" and "kanso-lang/parser" (the teacher's
// own module is named "kanso", not "kanso-lang") and was already dead code
// in the teacher repo — that defect is fixed here rather than reproduced.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"weaver/internal/irtext"
)

const prompt = ">> "

// Start runs the loop: each line (or run of lines up to a blank line) read
// from in is parsed as an irtext program fragment and its converted IR is
// summarised back to out.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return
		}

		var block strings.Builder
		line := scanner.Text()
		for line != "" {
			block.WriteString(line)
			block.WriteString("\n")
			if !scanner.Scan() {
				break
			}
			line = scanner.Text()
		}
		if block.Len() == 0 {
			continue
		}

		src := block.String()
		prog, err := irtext.ParseString("<repl>", src)
		if err != nil {
			fmt.Fprintf(out, "syntax error: %s\n", err)
			continue
		}

		program, err := irtext.ToIR(prog)
		if err != nil {
			fmt.Fprintf(out, "conversion error: %s\n", err)
			continue
		}

		fmt.Fprintf(out, "%d struct(s), %d method(s):\n", len(program.Structs), len(program.Methods))
		for _, m := range program.Methods {
			fmt.Fprintf(out, "  method %s (%d params, %d ops)\n", m.Name, len(m.Params), len(m.Body))
		}
	}
}
