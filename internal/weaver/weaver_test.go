package weaver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/ir"
	"weaver/internal/residual"
)

func TestWeaveMaterialisesGuardedFieldCheck(t *testing.T) {
	assignMember := &ir.AssignMember{
		Root: &ir.Var{Name: "o"}, Struct: "S", Field: "f", Value: &ir.Literal{Kind: ir.LitInt, Value: 1},
	}
	ifOp := &ir.If{
		Cond: &ir.Binary{Op: ">", Left: &ir.Var{Name: "x"}, Right: &ir.Literal{Kind: ir.LitInt, Value: 0}},
		Then: []ir.Op{assignMember},
	}
	m := &ir.Method{
		Name:   "m",
		IsMain: true,
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

	woven, err := Weave(program, table, trace)
	require.NoError(t, err)

	// Main's entry prologue (instance counter + dynamic permission object)
	// precedes the term materialisation and the rewritten If.
	require.Len(t, woven.Methods[0].Body, 5)
	_, ok := woven.Methods[0].Body[0].(*ir.AllocValue)
	require.True(t, ok)
	_, ok = woven.Methods[0].Body[1].(*ir.AllocStruct)
	require.True(t, ok)
	_, ok = woven.Methods[0].Body[2].(*ir.Invoke)
	require.True(t, ok)
	_, ok = woven.Methods[0].Body[3].(*ir.Assign)
	require.True(t, ok)
	wovenIf, ok := woven.Methods[0].Body[4].(*ir.If)
	require.True(t, ok)
	require.Len(t, wovenIf.Then, 2)
	guard, ok := wovenIf.Then[0].(*ir.If)
	require.True(t, ok)
	_, ok = wovenIf.Then[1].(*ir.AssignMember)
	assert.True(t, ok)

	invoke, ok := guard.Then[0].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, "runtime.assert_acc", invoke.Method)
	require.Len(t, invoke.Args, 3)
	idArg, ok := invoke.Args[1].(*ir.Field)
	require.True(t, ok)
	assert.Equal(t, "_id", idArg.Field)
}
