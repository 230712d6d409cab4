package injector

import (
	"hash/fnv"

	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	"weaver/internal/collector"
	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// Conventional locals the injector threads every permission-tracking
// method through (spec §4.4 step 3). Which of the two names backs a given
// method's own field/predicate accessibility checks depends on its
// CallStyle (fieldsLocalFor, below); a separation check always
// names both, since it is precisely the assertion that the two differ.
const (
	staticFieldsLocal  = "$static_fields"
	dynamicFieldsLocal = "$dynamic_fields"
)

// Runtime interface method names the injector's synthesized Invoke ops
// name (spec §4.5); a target backend resolves these conventionally.
// internal/permruntime implements the same operations in Go, but no code
// in this repository binds these names to it.
const (
	runtimeInitFields        = "runtime.init_fields"
	runtimeAddFieldAccess    = "runtime.add_field_access"
	runtimeAddStructAccess   = "runtime.add_struct_access"
	runtimeAssertAcc         = "runtime.assert_acc"
	runtimeAssertDisjointAcc = "runtime.assert_disjoint_acc"
	runtimeJoin              = "runtime.join"
	runtimeDisjoin           = "runtime.disjoin"
	// runtimeNextObjectID is not one of spec §4.5's six named operations:
	// it exists because this IR has no primitive for writing through a
	// scalar pointer, so "obj._id = (*counter)++" (spec §4.4 step 4, the
	// purely-precise allocation path) needs a concrete op to stand for the
	// read-then-increment. See DESIGN.md.
	runtimeNextObjectID = "runtime.next_object_id"
)

// buildCheckOps synthesises the op(s) that enforce one residual check
// (spec §4.4 step 2). Expr checks become a specification Assert; the four
// permission checks become a call to the runtime permission interface
// named by the conventions above, against the permission object cs
// (the method's call style) says owns that method's own field state.
func buildCheckOps(program *ir.Program, c checks.Check, cs collector.CallStyle) ([]ir.Op, error) {
	switch x := c.(type) {
	case *checks.Expr:
		return []ir.Op{&ir.Assert{
			Kind: ir.AssertSpecification,
			Expr: checkexpr.Lower(x.E, residual.ResultSentinel, nil),
		}}, nil

	case *checks.FieldAccessibility:
		root, idx, err := fieldRefArgs(program, x.Field)
		if err != nil {
			return nil, err
		}
		return []ir.Op{&ir.Invoke{
			Method: runtimeAssertAcc,
			Args:   []ir.Expr{&ir.Var{Name: fieldsLocalFor(cs)}, root, idx},
		}}, nil

	case *checks.FieldSeparation:
		root, idx, err := fieldRefArgs(program, x.Field)
		if err != nil {
			return nil, err
		}
		return []ir.Op{&ir.Invoke{
			Method: runtimeAssertDisjointAcc,
			Args:   []ir.Expr{&ir.Var{Name: staticFieldsLocal}, &ir.Var{Name: dynamicFieldsLocal}, root, idx},
		}}, nil

	case *checks.PredicateAccessibility:
		root, idx := predicateRefArgs(x.Predicate)
		return []ir.Op{&ir.Invoke{
			Method: runtimeAssertAcc,
			Args:   []ir.Expr{&ir.Var{Name: fieldsLocalFor(cs)}, root, idx},
		}}, nil

	case *checks.PredicateSeparation:
		root, idx := predicateRefArgs(x.Predicate)
		return []ir.Op{&ir.Invoke{
			Method: runtimeAssertDisjointAcc,
			Args:   []ir.Expr{&ir.Var{Name: staticFieldsLocal}, &ir.Var{Name: dynamicFieldsLocal}, root, idx},
		}}, nil

	default:
		return nil, weaverrors.New(weaverrors.CodeInvalidSpecification, "", ir.Position{},
			"no runtime encoding for check of type %T", c)
	}
}

// fieldsLocalFor picks the permission object a method's own field/predicate
// accessibility checks assert against (spec §4.4 step 3, testable scenario
// 2): Main owns no statically-threaded object of its own, so its checks
// resolve against the dynamic object it allocates at entry; an Imprecise
// callee's precondition grants nothing precise either, so it too resolves
// against dynamic. Precise and PrecisePre callees received exactly their
// precondition's grant as a static object, so their own checks resolve
// against that.
func fieldsLocalFor(cs collector.CallStyle) string {
	switch cs {
	case collector.CallPrecise, collector.CallPrecisePre:
		return staticFieldsLocal
	default:
		return dynamicFieldsLocal
	}
}

// fieldRefArgs resolves a FieldRef to the (object id, field index) pair the
// runtime interface expects: the object id is not the root expression
// itself but its _id field (spec glossary, testable scenario 2's literal
// `x._id`), since that is what the instance counter/add_struct_access
// bookkeeping (step 4) actually assigns.
func fieldRefArgs(program *ir.Program, fr checks.FieldRef) (ir.Expr, ir.Expr, error) {
	sd := program.StructByName(fr.Struct)
	if sd == nil {
		return nil, nil, weaverrors.New(weaverrors.CodeInvalidSpecification, "", ir.Position{},
			"unknown struct %q in field permission", fr.Struct)
	}
	idx := sd.FieldIndex(fr.Field)
	if idx < 0 {
		return nil, nil, weaverrors.New(weaverrors.CodeInvalidSpecification, "", ir.Position{},
			"struct %q has no field %q", fr.Struct, fr.Field)
	}
	root := checkexpr.Lower(fr.Root, residual.ResultSentinel, nil)
	id := &ir.Field{Root: root, Struct: fr.Struct, Field: idFieldName}
	return id, &ir.Literal{Kind: ir.LitInt, Value: idx}, nil
}

// predicateRefArgs resolves a PredicateRef to the (object, field index)
// pair the field-oriented runtime interface expects. There is no native
// runtime notion of a predicate instance, so this weaver reuses the field
// permission interface, keying a predicate's slot by a deterministic hash
// of its name rather than a declared struct field index (see DESIGN.md);
// the predicate's first argument, when present, stands in for the object
// the permission belongs to.
func predicateRefArgs(pr checks.PredicateRef) (ir.Expr, ir.Expr) {
	var root ir.Expr = &ir.Literal{Kind: ir.LitNull, Value: nil}
	if len(pr.Args) > 0 {
		root = checkexpr.Lower(pr.Args[0], residual.ResultSentinel, nil)
	}
	return root, &ir.Literal{Kind: ir.LitInt, Value: predicateSlot(pr.Name)}
}

// predicateSlot maps a predicate name to a stable negative integer so it
// can never collide with a genuine (non-negative) declared field index.
func predicateSlot(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return -1 - int(h.Sum32()%(1<<30))
}
