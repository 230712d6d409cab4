// Package irtext is a textual fixture format for an ir.Program: this repo
// has no source-level surface syntax of its own (spec.md places the front
// end that produces the IR out of scope), so this package exists only so
// the weaver's own tests, cmd/weave, and repl have something to read from
// disk. Expressions use a prefix (Lisp-style) notation rather than an
// operator-precedence grammar, trading surface-syntax familiarity for a
// grammar simple enough that the weaver's own test fixtures never need to
// encode precedence — see DESIGN.md.
//
// Grounded on the teacher's grammar package: a participle stateful lexer
// (grammar/lexer.go) feeding a participle.Build grammar (grammar/parser.go).
package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes an irtext fixture. Grounded on grammar/lexer.go's rule
// shape (doc comments, identifiers, integers, operators, punctuation,
// whitespace elided by the parser).
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Integer", Pattern: `[0-9]+`, Action: nil},
		{Name: "Operator", Pattern: `(==|!=|<=|>=|&&|\|\||->|[-+/%<>!])`, Action: nil},
		{Name: "Punct", Pattern: `[(){}\[\],:;.*=$]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
