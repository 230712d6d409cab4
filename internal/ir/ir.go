// Package ir defines the in-memory shape of the intermediate representation
// the weaver consumes and mutates: methods built from a small op tree, plus
// the specification-expression trees attached to preconditions,
// postconditions, loop invariants, and inline assertions.
//
// This package does not parse or print the IR — that is the job of an
// external front end (see internal/irtext for a textual fixture format used
// only by this repo's own tests and tooling). The weaver treats values of
// this package as already-built input and output.
package ir

// Position locates a node in whatever source or fixture produced the IR,
// carried through for diagnostics.
type Position struct {
	Line   int
	Column int
}

// Type is the weaver's small closed type vocabulary: just enough to name
// parameters, locals, and struct fields.
type Type interface {
	String() string
}

type IntType struct{ Bits int }
type BoolType struct{}
type RefType struct{ Elem Type }
type StructType struct{ Name string }

func (t *IntType) String() string    { return "int" }
func (t *BoolType) String() string   { return "bool" }
func (t *RefType) String() string    { return "*" + t.Elem.String() }
func (t *StructType) String() string { return t.Name }

// Param is a method formal parameter.
type Param struct {
	Name string
	Type Type
}

// StructDef names a struct type and its fields, in declaration order. Field
// index (position in Fields) is what the runtime interface's field_index
// argument refers to.
type StructDef struct {
	Name   string
	Fields []FieldDef
}

// FieldDef is one field of a StructDef.
type FieldDef struct {
	Name string
	Type Type
}

// FieldIndex returns the declared index of name within s, or -1 if absent.
func (s *StructDef) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Method is a single procedure: parameters, an optional precondition and
// postcondition (specification expressions, possibly nil meaning "true"),
// and a body of operations.
type Method struct {
	Name       string
	IsMain     bool
	Params     []Param
	ResultType Type // nil for void
	// ResultNames, when len > 1, names the distinguished result temporaries
	// a multi-valued return binds (spec §4.2's "variables beginning with the
	// result-temporary prefix").
	ResultNames []string
	Pre         Expr
	Post        Expr
	Body        []Op
}

// Program is the whole unit the weaver operates on.
type Program struct {
	Structs []*StructDef
	Methods []*Method
}

// StructByName looks up a struct definition, or returns nil.
func (p *Program) StructByName(name string) *StructDef {
	for _, s := range p.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// MethodByName looks up a method definition, or returns nil.
func (p *Program) MethodByName(name string) *Method {
	for _, m := range p.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
