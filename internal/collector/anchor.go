package collector

import (
	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// AnchorKind classifies what kind of IR point a verifier node id resolves
// to, which is exactly the information Phase B's reclassification rules
// need.
type AnchorKind int

const (
	AnchorGeneric     AnchorKind = iota // an ordinary op: If/Assign/AssignMember/Assert/Fold/Unfold/AllocValue/AllocStruct/Return/Error
	AnchorWhile                         // a While op's own node or a node reachable from its invariant
	AnchorInvoke                        // an Invoke op's own node or a node reachable from the callee's pre/postcondition
	AnchorMethodPre                     // the method's own precondition
	AnchorMethodPost                    // the method's own postcondition
)

// Anchor is what a verifier node id resolves to: the op it belongs to
// (nil for the two method-level anchors) and, for the two anchor kinds
// whose position reclassification needs to tell "inside this clause" from
// "outside it", the set of node ids structurally contained in that clause.
type Anchor struct {
	Kind             AnchorKind
	Op               ir.Op
	InvariantSet     map[residual.NodeID]bool // AnchorWhile only
	PostconditionSet map[residual.NodeID]bool // AnchorInvoke only
}

// index maps every verifier node id reachable from a method's trace to its
// Anchor.
type index map[residual.NodeID]*Anchor

// indexMethod performs Phase A (spec §4.3): it walks m.Body and mt.Body in
// lock step, building the node-id index and failing with
// CodeStructuralMismatch the moment the two shapes disagree. The two
// documented exceptions — an imperative Assert consumes no verifier
// statement, and a void Return consumes none — advance only the IR-side
// cursor.
func indexMethod(m *ir.Method, mt *residual.MethodTrace) (index, error) {
	idx := index{}
	for _, n := range mt.PreNodes {
		idx[n] = &Anchor{Kind: AnchorMethodPre}
	}
	for _, n := range mt.PostNodes {
		idx[n] = &Anchor{Kind: AnchorMethodPost}
	}

	if err := indexBody(m.Name, idx, m.Body, mt.Body); err != nil {
		return nil, err
	}
	return idx, nil
}

func indexBody(method string, idx index, ops []ir.Op, vops []*residual.VOp) error {
	i, j := 0, 0
	for i < len(ops) {
		op := ops[i]

		// Exception 1: an imperative assert consumes no verifier statement.
		if a, ok := op.(*ir.Assert); ok && a.Kind == ir.AssertImperative {
			i++
			continue
		}
		// Exception 2: a void return consumes no verifier statement.
		if r, ok := op.(*ir.Return); ok && r.Value == nil {
			i++
			continue
		}

		if j >= len(vops) {
			return weaverrors.New(weaverrors.CodeStructuralMismatch, method, op.Pos(),
				"IR op has no matching verifier statement")
		}
		vop := vops[j]

		if err := indexOp(method, idx, op, vop); err != nil {
			return err
		}
		i++
		j++
	}
	if j < len(vops) {
		return weaverrors.New(weaverrors.CodeStructuralMismatch, method, ir.Position{},
			"verifier reports more statements than the IR body has")
	}
	return nil
}

func indexOp(method string, idx index, op ir.Op, vop *residual.VOp) error {
	switch o := op.(type) {
	case *ir.If:
		if vop.Kind != residual.VOpIf {
			return mismatchErr(method, op, vop)
		}
		idx[vop.ID] = &Anchor{Kind: AnchorGeneric, Op: op}
		if err := indexBody(method, idx, o.Then, vop.Then); err != nil {
			return err
		}
		return indexBody(method, idx, o.Else, vop.Else)

	case *ir.While:
		if vop.Kind != residual.VOpWhile {
			return mismatchErr(method, op, vop)
		}
		inv := map[residual.NodeID]bool{}
		for _, n := range vop.InvariantNodes {
			inv[n] = true
		}
		a := &Anchor{Kind: AnchorWhile, Op: op, InvariantSet: inv}
		idx[vop.ID] = a
		for _, n := range vop.InvariantNodes {
			idx[n] = a
		}
		return indexBody(method, idx, o.Body, vop.Body)

	case *ir.Invoke:
		if vop.Kind != residual.VOpInvoke {
			return mismatchErr(method, op, vop)
		}
		post := map[residual.NodeID]bool{}
		for _, n := range vop.PostconditionNodes {
			post[n] = true
		}
		a := &Anchor{Kind: AnchorInvoke, Op: op, PostconditionSet: post}
		idx[vop.ID] = a
		for _, n := range vop.PreconditionNodes {
			idx[n] = a
		}
		for _, n := range vop.PostconditionNodes {
			idx[n] = a
		}
		return nil

	case *ir.AllocValue:
		return expectKind(method, op, vop, residual.VOpAllocValue, idx)
	case *ir.AllocStruct:
		return expectKind(method, op, vop, residual.VOpAllocStruct, idx)
	case *ir.Assign:
		return expectKind(method, op, vop, residual.VOpAssign, idx)
	case *ir.AssignMember:
		return expectKind(method, op, vop, residual.VOpAssignMember, idx)

	case *ir.Assert:
		if vop.Kind != residual.VOpAssertSpecification {
			return mismatchErr(method, op, vop)
		}
		a := &Anchor{Kind: AnchorGeneric, Op: op}
		idx[vop.ID] = a
		for _, n := range vop.AssertNodes {
			idx[n] = a
		}
		return nil

	case *ir.Fold:
		if vop.Kind != residual.VOpFold {
			return mismatchErr(method, op, vop)
		}
		a := &Anchor{Kind: AnchorGeneric, Op: op}
		idx[vop.ID] = a
		for _, n := range vop.PredicateNodes {
			idx[n] = a
		}
		return nil

	case *ir.Unfold:
		if vop.Kind != residual.VOpUnfold {
			return mismatchErr(method, op, vop)
		}
		a := &Anchor{Kind: AnchorGeneric, Op: op}
		idx[vop.ID] = a
		for _, n := range vop.PredicateNodes {
			idx[n] = a
		}
		return nil

	case *ir.Error:
		return expectKind(method, op, vop, residual.VOpError, idx)

	case *ir.Return:
		return expectKind(method, op, vop, residual.VOpReturnValue, idx)

	default:
		return weaverrors.New(weaverrors.CodeStructuralMismatch, method, op.Pos(),
			"unrecognised op type %T", op)
	}
}

func expectKind(method string, op ir.Op, vop *residual.VOp, want residual.VOpKind, idx index) error {
	if vop.Kind != want {
		return mismatchErr(method, op, vop)
	}
	idx[vop.ID] = &Anchor{Kind: AnchorGeneric, Op: op}
	return nil
}

func mismatchErr(method string, op ir.Op, vop *residual.VOp) error {
	return weaverrors.New(weaverrors.CodeStructuralMismatch, method, op.Pos(),
		"IR op %T does not match verifier statement kind %v", op, vop.Kind)
}
