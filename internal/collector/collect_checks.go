package collector

import (
	"fmt"
	"sort"

	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
	"weaver/internal/logic"
	"weaver/internal/residual"
)

// classifiedCheck is one collected runtime check together with the named
// position-tag it was classified under (spec §4.3 Phase B's own category
// names), which Phase D needs to decide whether a location requires a full
// permission walk.
type classifiedCheck struct {
	check    *RuntimeCheckEntry
	classTag string
}

// collectChecks runs Phase B (position reclassification) and Phase C
// (condition-term interning) over every residual check reported for m,
// using idx (this method's Phase A index) to resolve each check's own
// Location and each branch frame's Location.
func collectChecks(m *ir.Method, table residual.Table, idx index, ic *interner) ([]*classifiedCheck, error) {
	nodes := make([]residual.NodeID, 0, len(table))
	for n := range table {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	byKey := map[string]*classifiedCheck{}
	var ordered []*classifiedCheck
	seq := 0

	for _, atNode := range nodes {
		anchor, ok := idx[atNode]
		if !ok {
			// This table entry belongs to a different method (the table is
			// program-wide); skip it here.
			continue
		}

		for _, ce := range table[atNode] {
			loc, classTag, err := resolveLocation(m.Name, anchor, ce)
			if err != nil {
				return nil, err
			}

			ctxConj, err := internBranchStack(m.Name, idx, ic, ce.BranchStack)
			if err != nil {
				return nil, err
			}
			var when *logic.Disjunction
			if len(ctxConj) > 0 {
				d := logic.Disjunction{ctxConj}
				when = &d
			}

			checkVal, err := checks.FromViper(ce.Formula)
			if err != nil {
				return nil, weaverrors.New(weaverrors.CodeInvalidExpression, m.Name, ir.Position{},
					"residual check formula: %v", err)
			}

			key := locationKey(loc) + "\x01" + checkValueKey(checkVal)
			if existing, ok := byKey[key]; ok {
				existing.check.check.When = orNilable(existing.check.check.When, when)
				continue
			}

			entry := &RuntimeCheckEntry{
				check: &checks.RuntimeCheck{Location: loc, Check: checkVal, When: when},
				seq:   seq,
			}
			seq++
			cc := &classifiedCheck{check: entry, classTag: classTag}
			byKey[key] = cc
			ordered = append(ordered, cc)
		}
	}

	return ordered, nil
}

// resolveLocation implements Phase B's reclassification table (spec §4.3):
// it maps a residual check's (Position, Refinement) pair, read against the
// anchor its table entry resolved to, to one of the named Location
// constructors, and also returns the named category Phase D keys off of.
func resolveLocation(method string, a *Anchor, ce residual.CheckEntry) (checks.Location, string, error) {
	switch {
	case ce.Position == residual.PosLoopBefore && ce.Refinement == residual.RefineNone:
		return checks.Pre(a.Op), "PreLoop", nil

	case ce.Position == residual.PosLoopAfter && ce.Refinement == residual.RefineNone:
		return checks.Post(a.Op), "PostLoop", nil

	case ce.Position == residual.PosLoopBegin && ce.Refinement == residual.RefineNone:
		if a.Kind == AnchorWhile && a.InvariantSet[ce.Context] {
			return checks.LoopStart(a.Op), "InvariantStart", nil
		}
		// Outside the actual invariant tree: demoted to PostLoop (spec §4.3
		// Phase B note on the verifier's own artefact).
		return checks.Post(a.Op), "PostLoop", nil

	case ce.Position == residual.PosLoopEnd && ce.Refinement == residual.RefineNone:
		return checks.LoopEnd(a.Op), "InvariantEnd", nil

	case ce.Position == residual.PosValue && ce.Refinement == residual.RefineInFold:
		return checks.Pre(a.Op), "Fold", nil

	case ce.Position == residual.PosValue && ce.Refinement == residual.RefineInUnfold:
		return checks.Pre(a.Op), "Unfold", nil

	case ce.Position == residual.PosValue && ce.Refinement == residual.RefineInCall:
		if a.Kind != AnchorInvoke {
			return checks.Location{}, "", weaverrors.New(weaverrors.CodeUnhandledPosition, method, ir.Position{},
				"call-refined check is not anchored to an invoke")
		}
		if a.PostconditionSet[ce.Context] {
			return checks.Post(a.Op), "PostInvoke", nil
		}
		return checks.Pre(a.Op), "PreInvoke", nil

	case ce.Position == residual.PosValue && ce.Refinement == residual.RefineNone:
		switch a.Kind {
		case AnchorMethodPre:
			return checks.MethodPre, "Value", nil
		case AnchorMethodPost:
			return checks.MethodPost, "Value", nil
		case AnchorInvoke:
			if a.PostconditionSet[ce.Context] {
				return checks.Post(a.Op), "PostInvoke", nil
			}
			return checks.Pre(a.Op), "PreInvoke", nil
		default:
			return checks.Pre(a.Op), "Value", nil
		}

	default:
		return checks.Location{}, "", weaverrors.New(weaverrors.CodeUnhandledPosition, method, ir.Position{},
			"no Phase B rule accepts position %v with refinement %v", ce.Position, ce.Refinement)
	}
}

// internBranchStack lowers a check's branch-condition stack to a
// Conjunction (spec §3/§6): outermost frame first, each one interned at
// its own Location and recorded against the running conjunction
// accumulated so far, before extending it.
func internBranchStack(method string, idx index, ic *interner, stack []residual.BranchFrame) (logic.Conjunction, error) {
	running := logic.Conjunction{}
	for _, frame := range stack {
		anchor, ok := idx[frame.AtNode]
		if !ok {
			return nil, weaverrors.New(weaverrors.CodeStructuralMismatch, method, ir.Position{},
				"branch-condition frame references unknown node")
		}
		condExpr, err := checkexpr.FromViper(frame.Cond)
		if err != nil {
			return nil, weaverrors.New(weaverrors.CodeInvalidExpression, method, ir.Position{},
				"branch condition: %v", err)
		}

		term := ic.intern(branchFrameLocation(anchor, frame), condExpr)
		if len(running) > 0 {
			ic.recordContext(term.ID, logic.Disjunction{append(logic.Conjunction{}, running...)})
		}
		running = append(running, term)
	}
	return running, nil
}

// branchFrameLocation resolves a branch frame's own Location (spec §6):
// ordinarily the enclosing method's own control flow, so the frame's
// condition is asked about at anchor.Op's Pre. But when the frame's Origin
// marks it as arising inside a nested callee's postcondition rather than
// the caller's own flow, it must be asked about at anchor.Op's Post instead
// — the same Pre/Post distinction Phase B's own PreInvoke/PostInvoke rule
// makes for a call-refined check (resolveLocation above).
func branchFrameLocation(anchor *Anchor, frame residual.BranchFrame) checks.Location {
	if anchor.Kind == AnchorInvoke && frame.Origin != nil && anchor.PostconditionSet[*frame.Origin] {
		return checks.Post(anchor.Op)
	}
	return checks.Pre(anchor.Op)
}

func orNilable(a, b *logic.Disjunction) *logic.Disjunction {
	if a == nil && b == nil {
		return nil
	}
	var av, bv logic.Disjunction
	if a != nil {
		av = *a
	} else {
		av = logic.True()
	}
	if b != nil {
		bv = *b
	} else {
		bv = logic.True()
	}
	out := logic.Or(av, bv)
	return &out
}

// checkValueKey is a deterministic structural key for a checks.Check,
// used to decide whether two occurrences at the same location share a
// condition set (spec §3).
func checkValueKey(c checks.Check) string {
	switch x := c.(type) {
	case *checks.Expr:
		return "E(" + exprKey(x.E) + ")"
	case *checks.FieldAccessibility:
		return "FA(" + fieldRefKey(x.Field) + ")"
	case *checks.FieldSeparation:
		return "FS(" + fieldRefKey(x.Field) + ")"
	case *checks.PredicateAccessibility:
		return "PA(" + predicateRefKey(x.Predicate) + ")"
	case *checks.PredicateSeparation:
		return "PS(" + predicateRefKey(x.Predicate) + ")"
	default:
		return fmt.Sprintf("?(%T)", c)
	}
}

func fieldRefKey(f checks.FieldRef) string {
	return f.Struct + "$" + f.Field + "@" + exprKey(f.Root)
}

func predicateRefKey(p checks.PredicateRef) string {
	s := p.Name + "("
	for i, a := range p.Args {
		if i > 0 {
			s += ","
		}
		s += exprKey(a)
	}
	return s + ")"
}
