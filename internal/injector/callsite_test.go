package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/collector"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// TestInjectThreadsPermissionsAcrossImpreciseCall exercises spec §4.4 step
// 3's call-site threading end to end: a Main caller with one field check
// of its own calls an Imprecise callee whose precondition grants a precise
// field permission. The callee's signature gains the (counter, dynamic,
// static) triple, and the call site gains a disjoin/join pair built around
// a freshly allocated static permission object scoped to this one call.
func TestInjectThreadsPermissionsAcrossImpreciseCall(t *testing.T) {
	helperPre := &ir.Binary{
		Op:    "&&",
		Left:  &ir.Accessibility{Root: &ir.Var{Name: "p"}, Struct: "T", Field: "f"},
		Right: &ir.Imprecise{},
	}
	helper := &ir.Method{
		Name:   "helper",
		Params: []ir.Param{{Name: "p", Type: &ir.RefType{Elem: &ir.StructType{Name: "T"}}}},
		Pre:    helperPre,
	}

	assignMember := &ir.AssignMember{
		Root: &ir.Var{Name: "obj"}, Struct: "T", Field: "f", Value: &ir.Literal{Kind: ir.LitInt, Value: 1},
	}
	inv := &ir.Invoke{Method: "helper", Args: []ir.Expr{&ir.Var{Name: "obj"}}}
	caller := &ir.Method{
		Name:   "caller",
		IsMain: true,
		Params: []ir.Param{{Name: "obj", Type: &ir.RefType{Elem: &ir.StructType{Name: "T"}}}},
		Body:   []ir.Op{assignMember, inv},
	}

	program := &ir.Program{
		Structs: []*ir.StructDef{{Name: "T", Fields: []ir.FieldDef{{Name: "f", Type: &ir.IntType{Bits: 32}}}}},
		Methods: []*ir.Method{caller, helper},
	}

	trace := residual.ProgramTrace{
		"caller": {Body: []*residual.VOp{
			{ID: 2, Kind: residual.VOpAssignMember},
			{ID: 3, Kind: residual.VOpInvoke},
		}},
		"helper": {},
	}
	formula := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{
		Root: &residual.VLocal{Name: "obj"}, FieldName: "T$f",
	}}
	table := residual.Table{
		2: {{Formula: formula, Context: 2, Position: residual.PosValue, Refinement: residual.RefineNone}},
	}

	collected, err := collector.Collect(program, table, trace)
	require.NoError(t, err)

	callerCM := collected.ByName("caller")
	require.NotNil(t, callerCM)
	assert.Equal(t, collector.CallMain, callerCM.CallStyle)
	require.Len(t, callerCM.Invokes, 1)

	helperCM := collected.ByName("helper")
	require.NotNil(t, helperCM)
	assert.Equal(t, collector.CallImprecise, helperCM.CallStyle)

	_, err = Inject(program, collected)
	require.NoError(t, err)

	// helper's own signature gained the (counter, dynamic, static) triple.
	require.Len(t, helper.Params, 4)
	assert.Equal(t, counterLocal, helper.Params[1].Name)
	assert.Equal(t, dynamicFieldsLocal, helper.Params[2].Name)
	assert.Equal(t, staticFieldsLocal, helper.Params[3].Name)

	// The call site now passes the counter plus a freshly built static
	// object alongside the original argument.
	require.Len(t, inv.Args, 4)
	_, ok := inv.Args[0].(*ir.Var)
	require.True(t, ok)
	callStaticVar, ok := inv.Args[3].(*ir.Var)
	require.True(t, ok)

	// Find the Invoke in caller's rewritten body and inspect what plan
	// surrounds it: an AllocStruct + init_fields + add_field_access +
	// disjoin before it, a join after it.
	var before, after []ir.Op
	var sawInvoke bool
	for _, op := range caller.Body {
		if op == ir.Op(inv) {
			sawInvoke = true
			continue
		}
		if !sawInvoke {
			before = append(before, op)
		} else {
			after = append(after, op)
		}
	}
	require.True(t, sawInvoke)

	require.GreaterOrEqual(t, len(before), 4)
	prologue := before[len(before)-4:]
	alloc, ok := prologue[0].(*ir.AllocStruct)
	require.True(t, ok)
	assert.Equal(t, callStaticVar.Name, alloc.Result)
	assert.Equal(t, fieldsStructName, alloc.Struct)

	initCall, ok := prologue[1].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeInitFields, initCall.Method)

	addCall, ok := prologue[2].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeAddFieldAccess, addCall.Method)
	idArg, ok := addCall.Args[1].(*ir.Field)
	require.True(t, ok)
	assert.Equal(t, "_id", idArg.Field)

	disjoinCall, ok := prologue[3].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeDisjoin, disjoinCall.Method)
	assert.Equal(t, dynamicFieldsLocal, disjoinCall.Args[0].(*ir.Var).Name)
	assert.Equal(t, callStaticVar.Name, disjoinCall.Args[1].(*ir.Var).Name)

	require.Len(t, after, 1)
	joinCall, ok := after[0].(*ir.Invoke)
	require.True(t, ok)
	assert.Equal(t, runtimeJoin, joinCall.Method)
	assert.Equal(t, dynamicFieldsLocal, joinCall.Args[0].(*ir.Var).Name)
	assert.Equal(t, callStaticVar.Name, joinCall.Args[1].(*ir.Var).Name)
}

// TestCallSiteThreadsOnlyCounterForPreciseCallee checks the testable
// property that a Precise callee's call site emits no permission object,
// join, or disjoin at all — only the counter is threaded (spec §8).
func TestCallSiteThreadsOnlyCounterForPreciseCallee(t *testing.T) {
	helper := &ir.Method{
		Name:   "helper",
		Params: []ir.Param{{Name: "p", Type: &ir.RefType{Elem: &ir.StructType{Name: "T"}}}},
		Pre:    &ir.Accessibility{Root: &ir.Var{Name: "p"}, Struct: "T", Field: "f"},
	}
	assignMember := &ir.AssignMember{
		Root: &ir.Var{Name: "obj"}, Struct: "T", Field: "f", Value: &ir.Literal{Kind: ir.LitInt, Value: 1},
	}
	inv := &ir.Invoke{Method: "helper", Args: []ir.Expr{&ir.Var{Name: "obj"}}}
	caller := &ir.Method{
		Name:   "caller",
		IsMain: true,
		Params: []ir.Param{{Name: "obj", Type: &ir.RefType{Elem: &ir.StructType{Name: "T"}}}},
		Body:   []ir.Op{assignMember, inv},
	}
	program := &ir.Program{
		Structs: []*ir.StructDef{{Name: "T", Fields: []ir.FieldDef{{Name: "f", Type: &ir.IntType{Bits: 32}}}}},
		Methods: []*ir.Method{caller, helper},
	}
	trace := residual.ProgramTrace{
		"caller": {Body: []*residual.VOp{
			{ID: 2, Kind: residual.VOpAssignMember},
			{ID: 3, Kind: residual.VOpInvoke},
		}},
		"helper": {},
	}
	formula := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{
		Root: &residual.VLocal{Name: "obj"}, FieldName: "T$f",
	}}
	table := residual.Table{
		2: {{Formula: formula, Context: 2, Position: residual.PosValue, Refinement: residual.RefineNone}},
	}

	collected, err := collector.Collect(program, table, trace)
	require.NoError(t, err)
	helperCM := collected.ByName("helper")
	require.NotNil(t, helperCM)
	assert.Equal(t, collector.CallPrecise, helperCM.CallStyle)

	_, err = Inject(program, collected)
	require.NoError(t, err)

	require.Len(t, helper.Params, 2)
	assert.Equal(t, counterLocal, helper.Params[1].Name)

	require.Len(t, inv.Args, 2)
	counterArg, ok := inv.Args[1].(*ir.Var)
	require.True(t, ok)
	assert.Equal(t, counterLocal, counterArg.Name)
}
