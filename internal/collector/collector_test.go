package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/checks"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

func TestCollectBranchGuardedFieldCheckInternsTerm(t *testing.T) {
	assignMember := &ir.AssignMember{
		Root: &ir.Var{Name: "o"}, Struct: "S", Field: "f", Value: &ir.Literal{Kind: ir.LitInt, Value: 1},
	}
	ifOp := &ir.If{
		Cond: &ir.Binary{Op: ">", Left: &ir.Var{Name: "x"}, Right: &ir.Literal{Kind: ir.LitInt, Value: 0}},
		Then: []ir.Op{assignMember},
	}
	m := &ir.Method{
		Name: "m",
		Params: []ir.Param{
			{Name: "x", Type: &ir.IntType{Bits: 32}},
			{Name: "o", Type: &ir.RefType{Elem: &ir.StructType{Name: "S"}}},
		},
		Body: []ir.Op{ifOp},
	}
	program := &ir.Program{
		Structs: []*ir.StructDef{{Name: "S", Fields: []ir.FieldDef{{Name: "f", Type: &ir.IntType{Bits: 32}}}}},
		Methods: []*ir.Method{m},
	}

	vAssign := &residual.VOp{ID: 2, Kind: residual.VOpAssignMember}
	vIf := &residual.VOp{ID: 1, Kind: residual.VOpIf, Then: []*residual.VOp{vAssign}}
	trace := residual.ProgramTrace{"m": {Body: []*residual.VOp{vIf}}}

	formula := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{
		Root: &residual.VLocal{Name: "o"}, FieldName: "S$f",
	}}
	table := residual.Table{
		2: {{
			Formula:    formula,
			Context:    2,
			Position:   residual.PosValue,
			Refinement: residual.RefineNone,
			BranchStack: []residual.BranchFrame{{
				AtNode: 1,
				Cond:   &residual.VBinary{Op: ">", Left: &residual.VLocal{Name: "x"}, Right: &residual.VLit{Kind: residual.VLitInt, Value: 0}},
			}},
		}},
	}

	collected, err := Collect(program, table, trace)
	require.NoError(t, err)
	cm := collected.ByName("m")
	require.NotNil(t, cm)

	require.Len(t, cm.Terms, 1)
	assert.Equal(t, checks.Pre(ifOp), cm.Terms[0].Location)

	require.Len(t, cm.Checks, 1)
	fa, ok := cm.Checks[0].Check().(*checks.FieldAccessibility)
	require.True(t, ok)
	assert.Equal(t, "S", fa.Field.Struct)
	assert.Equal(t, "f", fa.Field.Field)
	assert.Equal(t, checks.Pre(assignMember), cm.Checks[0].Location())
	require.NotNil(t, cm.Checks[0].When())
	assert.Len(t, *cm.Checks[0].When(), 1)
}

func TestCollectStructuralMismatchIsReported(t *testing.T) {
	m := &ir.Method{Name: "m", Body: []ir.Op{&ir.Assign{Result: "y", Value: &ir.Literal{Kind: ir.LitInt, Value: 1}}}}
	program := &ir.Program{Methods: []*ir.Method{m}}

	// Trace reports a While where the IR has an Assign: Phase A must fail.
	trace := residual.ProgramTrace{"m": {Body: []*residual.VOp{{ID: 1, Kind: residual.VOpWhile}}}}

	_, err := Collect(program, residual.Table{}, trace)
	require.Error(t, err)
}

func TestCollectCallSiteSeparationForTwoPermissions(t *testing.T) {
	callee := &ir.Method{
		Name:   "callee",
		Params: []ir.Param{{Name: "a", Type: &ir.RefType{Elem: &ir.StructType{Name: "S"}}}, {Name: "b", Type: &ir.RefType{Elem: &ir.StructType{Name: "S"}}}},
		Pre: &ir.Binary{Op: "&&",
			Left:  &ir.Accessibility{Root: &ir.Var{Name: "a"}, Struct: "S", Field: "f"},
			Right: &ir.Accessibility{Root: &ir.Var{Name: "b"}, Struct: "S", Field: "g"},
		},
	}
	invoke := &ir.Invoke{Method: "callee", Args: []ir.Expr{&ir.Var{Name: "p"}, &ir.Var{Name: "q"}}}
	caller := &ir.Method{
		Name:   "caller",
		Params: []ir.Param{{Name: "p", Type: &ir.RefType{Elem: &ir.StructType{Name: "S"}}}, {Name: "q", Type: &ir.RefType{Elem: &ir.StructType{Name: "S"}}}},
		Body:   []ir.Op{invoke},
	}
	program := &ir.Program{
		Structs: []*ir.StructDef{{Name: "S", Fields: []ir.FieldDef{{Name: "f", Type: &ir.IntType{Bits: 32}}, {Name: "g", Type: &ir.IntType{Bits: 32}}}}},
		Methods: []*ir.Method{callee, caller},
	}

	vInvoke := &residual.VOp{ID: 1, Kind: residual.VOpInvoke}
	trace := residual.ProgramTrace{
		"caller": {Body: []*residual.VOp{vInvoke}},
		"callee": {},
	}

	faF := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{Root: &residual.VLocal{Name: "p"}, FieldName: "S$f"}}
	faG := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{Root: &residual.VLocal{Name: "q"}, FieldName: "S$g"}}
	table := residual.Table{
		1: {
			{Formula: faF, Context: 10, Position: residual.PosValue, Refinement: residual.RefineInCall},
			{Formula: faG, Context: 11, Position: residual.PosValue, Refinement: residual.RefineInCall},
		},
	}

	collected, err := Collect(program, table, trace)
	require.NoError(t, err)
	cm := collected.ByName("caller")
	require.NotNil(t, cm)

	var accessCount, sepCount int
	for _, c := range cm.Checks {
		switch c.Check().(type) {
		case *checks.FieldAccessibility:
			accessCount++
		case *checks.FieldSeparation:
			sepCount++
		}
	}
	assert.Equal(t, 2, accessCount)
	assert.Equal(t, 2, sepCount)
}
