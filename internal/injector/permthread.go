package injector

import (
	"fmt"

	"weaver/internal/checks"
	"weaver/internal/collector"
	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
)

// Conventional names for the program-wide permission-tracking scaffolding
// added when the program requires it (spec §4.4 steps 3-4).
const (
	counterLocal     = "$counter"
	fieldsStructName = "$Fields"
	idFieldName      = "_id"
)

func counterType() ir.Type { return &ir.RefType{Elem: &ir.IntType{Bits: 64}} }
func fieldsType() ir.Type  { return &ir.RefType{Elem: &ir.StructType{Name: fieldsStructName}} }

// requiresTracking reports whether cp needs the instance counter and
// permission objects threaded through it at all: only programs with at
// least one field- or predicate-permission check do (spec §4.4 step 3,
// "only when requires_tracking"). A program that only ever materialises
// Expr checks never allocates an object or an _id.
func requiresTracking(cp *collector.CollectedProgram) bool {
	for _, cm := range cp.Methods {
		for _, c := range cm.Checks {
			switch c.Check().(type) {
			case *checks.FieldAccessibility, *checks.FieldSeparation,
				*checks.PredicateAccessibility, *checks.PredicateSeparation:
				return true
			}
		}
	}
	return false
}

// ensureFieldsStruct adds the opaque permission-object struct to program,
// once, if tracking needs it. It declares no fields of its own: every
// permission object is backed entirely by the runtime interface's own
// bookkeeping (spec §4.5), never by field reads/writes the injector emits.
func ensureFieldsStruct(program *ir.Program) {
	if program.StructByName(fieldsStructName) != nil {
		return
	}
	program.Structs = append(program.Structs, &ir.StructDef{Name: fieldsStructName})
}

// addIDFields appends the synthetic _id field (spec glossary) to every
// real struct in the program — every struct except the permission object
// itself, which heap allocations never mix with — so that an AllocStruct
// of any of them has somewhere to record the instance counter's id.
func addIDFields(program *ir.Program) {
	for _, sd := range program.Structs {
		if sd.Name == fieldsStructName {
			continue
		}
		if sd.FieldIndex(idFieldName) >= 0 {
			continue
		}
		sd.Fields = append(sd.Fields, ir.FieldDef{Name: idFieldName, Type: &ir.IntType{Bits: 64}})
	}
}

// addThreadedParams extends cm's own method signature with the extra
// formal parameters its call style requires (spec §4.4 step 3): Main
// receives nothing extra, since it allocates its own instance counter and
// dynamic permission object rather than being handed one; a Precise
// callee receives only the counter, never a permission object, matching
// the testable property that a precise call threads no join/disjoin; a
// PrecisePre or Imprecise callee receives the counter plus both
// permission objects, in that fixed order, since the call-site threading
// below always supplies exactly that shape for either.
func addThreadedParams(cm *collector.CollectedMethod) {
	m := cm.Method
	switch cm.CallStyle {
	case collector.CallMain:
		return
	case collector.CallPrecise:
		m.Params = append(m.Params, ir.Param{Name: counterLocal, Type: counterType()})
	default:
		m.Params = append(m.Params,
			ir.Param{Name: counterLocal, Type: counterType()},
			ir.Param{Name: dynamicFieldsLocal, Type: fieldsType()},
			ir.Param{Name: staticFieldsLocal, Type: fieldsType()},
		)
	}
}

// mainEntryOps builds the prologue Main needs before anything else in its
// body runs: a fresh instance counter and a fresh dynamic permission
// object, the two process-lifetime objects every other call style's
// threaded parameters ultimately derive from.
func mainEntryOps() []ir.Op {
	return []ir.Op{
		&ir.AllocValue{Result: counterLocal, Type: counterType()},
		&ir.AllocStruct{Result: dynamicFieldsLocal, Struct: fieldsStructName},
		&ir.Invoke{Method: runtimeInitFields, Args: []ir.Expr{&ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: counterLocal}}},
	}
}

// callSiteThreading builds the call-site prologue/epilogue ops for one
// invoke (spec §4.4 step 3) and appends the matching extra arguments onto
// inv.Args in place. n distinguishes this call site's own temporaries from
// every other one in the same method.
//
// The spec's own scenario 5 describes the sequence as "build the callee's
// static object, join it into dynamic, disjoin it back out" on the way in
// and the reverse on the way out; that cannot be realised with the spec's
// six named primitives without either building the same set twice or
// reversing which half of the pair runs first, so this weaver instead
// disjoins the granted permissions out of the caller's dynamic object in
// the prologue (handing them to the callee) and joins them back in the
// epilogue (reclaiming them on return) — a single balanced disjoin/join
// pair per call site, which is what the testable property actually
// requires; see DESIGN.md.
func callSiteThreading(program *ir.Program, cp *collector.CollectedProgram, cm *collector.CollectedMethod, inv *ir.Invoke, n int) (prologue, epilogue []ir.Op, err error) {
	callee := cp.ByName(inv.Method)
	if callee == nil {
		// Not a collected method (a runtime call or an as-yet-unverified
		// external method): nothing in this program's own tracking scheme
		// applies to it.
		return nil, nil, nil
	}

	switch callee.CallStyle {
	case collector.CallMain:
		return nil, nil, weaverrors.New(weaverrors.CodeInvalidSpecification, cm.Method.Name, inv.Pos(),
			"%s calls %s, but %s is the program entry point and cannot be a callee", cm.Method.Name, inv.Method, inv.Method)

	case collector.CallPrecise:
		// "a Precise method ... only takes the counter pointer" (spec §8):
		// no permission object is built, joined, or disjoined for this call.
		inv.Args = append(inv.Args, &ir.Var{Name: counterLocal})
		return nil, nil, nil

	default: // CallPrecisePre, CallImprecise
		if cm.CallStyle == collector.CallPrecise {
			return nil, nil, weaverrors.New(weaverrors.CodeInvalidSpecification, cm.Method.Name, inv.Pos(),
				"%s has no dynamic permission object of its own to thread into %s", cm.Method.Name, inv.Method)
		}

		// Compute the callee's precise field grants against the call
		// site's own original argument list, before any threaded
		// parameter is appended to either side — addThreadedParams has
		// already extended callee.Method.Params program-wide by the time
		// any method body is rewritten, so the original, pre-extension
		// arity has to be reconstructed here rather than read directly.
		origArgs := append([]ir.Expr{}, inv.Args...)
		shim := &ir.Method{Name: callee.Method.Name, Params: calleeOriginalParams(callee), Pre: callee.Method.Pre}
		grants, gerr := collector.CalleePreciseFieldPermissions(shim, &ir.Invoke{Args: origArgs})
		if gerr != nil {
			return nil, nil, gerr
		}

		callStatic := fmt.Sprintf("$call_static$%d", n)
		prologue = append(prologue, &ir.AllocStruct{Result: callStatic, Struct: fieldsStructName})
		prologue = append(prologue, &ir.Invoke{Method: runtimeInitFields, Args: []ir.Expr{&ir.Var{Name: callStatic}, &ir.Var{Name: counterLocal}}})
		for _, fr := range grants {
			root, idx, ferr := fieldRefArgs(program, fr)
			if ferr != nil {
				return nil, nil, ferr
			}
			prologue = append(prologue, &ir.Invoke{
				Method: runtimeAddFieldAccess,
				Args:   []ir.Expr{&ir.Var{Name: callStatic}, root, idx},
			})
		}
		prologue = append(prologue, &ir.Invoke{
			Method: runtimeDisjoin,
			Args:   []ir.Expr{&ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: callStatic}},
		})

		inv.Args = append(inv.Args, &ir.Var{Name: counterLocal}, &ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: callStatic})

		epilogue = append(epilogue, &ir.Invoke{
			Method: runtimeJoin,
			Args:   []ir.Expr{&ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: callStatic}},
		})
		return prologue, epilogue, nil
	}
}

// threadedParamCount is how many extra formal parameters addThreadedParams
// appends for a given callee call style (the inverse of addThreadedParams).
func threadedParamCount(cs collector.CallStyle) int {
	switch cs {
	case collector.CallMain:
		return 0
	case collector.CallPrecise:
		return 1
	default:
		return 3
	}
}

// calleeOriginalParams returns callee's formal parameters as they were
// before addThreadedParams extended them, for re-deriving the call site's
// pre-extension argument binding.
func calleeOriginalParams(callee *collector.CollectedMethod) []ir.Param {
	n := threadedParamCount(callee.CallStyle)
	return callee.Method.Params[:len(callee.Method.Params)-n]
}

// allocBookkeepingOps builds the ops that follow alloc with the _id
// assignment spec §4.4 step 4 requires: every allocation consumes the
// next id from the instance counter, and an allocation in a context that
// tracks permissions at runtime (Main, an Imprecise callee) additionally
// grants itself full access to every declared field of the new object.
// A Precise or PrecisePre allocation needs no such grant — its permission
// to the new object is established statically, not through a runtime
// permission object — so it only bumps the counter.
func allocBookkeepingOps(program *ir.Program, cm *collector.CollectedMethod, alloc *ir.AllocStruct, n int) ([]ir.Op, error) {
	sd := program.StructByName(alloc.Struct)
	if sd == nil {
		return nil, weaverrors.New(weaverrors.CodeInvalidSpecification, cm.Method.Name, alloc.Pos(),
			"allocation of unknown struct %q", alloc.Struct)
	}
	declaredFields := 0
	for _, f := range sd.Fields {
		if f.Name != idFieldName {
			declaredFields++
		}
	}

	tmp := fmt.Sprintf("$alloc_id$%d", n)
	ops := []ir.Op{
		&ir.Invoke{Method: runtimeNextObjectID, Args: []ir.Expr{&ir.Var{Name: counterLocal}}, Results: []string{tmp}},
		&ir.AssignMember{Root: &ir.Var{Name: alloc.Result}, Struct: alloc.Struct, Field: idFieldName, Value: &ir.Var{Name: tmp}},
	}

	switch cm.CallStyle {
	case collector.CallPrecise, collector.CallPrecisePre:
		return ops, nil
	default: // CallMain, CallImprecise
		ops = append(ops, &ir.Invoke{
			Method: runtimeAddStructAccess,
			Args:   []ir.Expr{&ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: tmp}, &ir.Literal{Kind: ir.LitInt, Value: declaredFields}},
		})
		return ops, nil
	}
}
