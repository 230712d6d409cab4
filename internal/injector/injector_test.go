package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/checks"
	"weaver/internal/collector"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

func TestInjectMaterialisesGuardedFieldCheck(t *testing.T) {
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

	collected, err := collector.Collect(program, table, trace)
	require.NoError(t, err)
	cm := collected.ByName("m")
	require.NotNil(t, cm)
	require.Len(t, cm.Terms, 1)

	_, err = Inject(program, collected)
	require.NoError(t, err)

	// Main's entry prologue (instance counter + dynamic permission object)
	// comes first, then the term materialises before ifOp.
	require.Len(t, m.Body, 5)
	_, ok := m.Body[0].(*ir.AllocValue)
	require.True(t, ok)
	_, ok = m.Body[1].(*ir.AllocStruct)
	require.True(t, ok)
	initInvoke, ok := m.Body[2].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeInitFields, initInvoke.Method)
	condAssign, ok := m.Body[3].(*ir.Assign)
	require.True(t, ok)
	assert.Equal(t, condVarName(cm.Terms[0].ID), condAssign.Result)
	assert.Same(t, ifOp, m.Body[4])

	// The guarded check materialises inside ifOp.Then, before assignMember,
	// and asserts against Main's dynamic object keyed by o's _id.
	require.Len(t, ifOp.Then, 2)
	guardIf, ok := ifOp.Then[0].(*ir.If)
	require.True(t, ok)
	condVar, ok := guardIf.Cond.(*ir.Var)
	require.True(t, ok)
	assert.Equal(t, condVarName(cm.Terms[0].ID), condVar.Name)
	require.Len(t, guardIf.Then, 1)
	invoke, ok := guardIf.Then[0].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeAssertAcc, invoke.Method)
	require.Len(t, invoke.Args, 3)
	fieldsArg, ok := invoke.Args[0].(*ir.Var)
	require.True(t, ok)
	assert.Equal(t, dynamicFieldsLocal, fieldsArg.Name)
	idArg, ok := invoke.Args[1].(*ir.Field)
	require.True(t, ok)
	assert.Equal(t, "_id", idArg.Field)
	assert.Same(t, assignMember, ifOp.Then[1])
}

func TestInjectMethodPreAndPostAtEveryReturn(t *testing.T) {
	ret := &ir.Return{Value: &ir.Literal{Kind: ir.LitInt, Value: 42}}
	m := &ir.Method{
		Name:       "m",
		ResultType: &ir.IntType{Bits: 32},
		Body:       []ir.Op{ret},
	}
	program := &ir.Program{Methods: []*ir.Method{m}}

	trace := residual.ProgramTrace{"m": {
		PreNodes:  []residual.NodeID{100},
		PostNodes: []residual.NodeID{200},
		Body:      []*residual.VOp{{ID: 1, Kind: residual.VOpReturnValue}},
	}}
	table := residual.Table{
		100: {{Formula: &residual.VLit{Kind: residual.VLitBool, Value: true}, Context: 100, Position: residual.PosValue, Refinement: residual.RefineNone}},
		200: {{
			Formula: &residual.VBinary{Op: ">", Left: &residual.VLocal{Name: residual.ResultSentinel}, Right: &residual.VLit{Kind: residual.VLitInt, Value: 0}},
			Context: 200, Position: residual.PosValue, Refinement: residual.RefineNone,
		}},
	}

	collected, err := collector.Collect(program, table, trace)
	require.NoError(t, err)
	cm := collected.ByName("m")
	require.NotNil(t, cm)
	require.Len(t, cm.Checks, 2)
	var sawPre, sawPost bool
	for _, c := range cm.Checks {
		switch c.Location() {
		case checks.MethodPre:
			sawPre = true
		case checks.MethodPost:
			sawPost = true
		}
	}
	require.True(t, sawPre)
	require.True(t, sawPost)

	_, err = Inject(program, collected)
	require.NoError(t, err)

	// methodPre's Assert comes first, then the result binding before the
	// original return, then the postcondition's Assert, then the return.
	require.Len(t, m.Body, 4)
	_, ok := m.Body[0].(*ir.Assert)
	require.True(t, ok)
	resultAssign, ok := m.Body[1].(*ir.Assign)
	require.True(t, ok)
	assert.Equal(t, residual.ResultSentinel, resultAssign.Result)
	_, ok = m.Body[2].(*ir.Assert)
	require.True(t, ok)
	assert.Same(t, ret, m.Body[3])
}
