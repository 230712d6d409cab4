package collector

import (
	"fmt"
	"strconv"

	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	"weaver/internal/logic"
)

// interner implements condition-term interning (spec §3): two requests for
// "value at location" return the same term id, term ids are assigned in
// first-seen order (so a term's accumulated When can only ever reference
// already-assigned, therefore smaller, ids — the acyclicity invariant), and
// every term records the disjunction of contexts in which it is asked
// about.
type interner struct {
	next  logic.TermID
	byKey map[string]*ConditionTerm
	byID  map[logic.TermID]*ConditionTerm
	order []*ConditionTerm
}

func newInterner() *interner {
	return &interner{byKey: map[string]*ConditionTerm{}, byID: map[logic.TermID]*ConditionTerm{}}
}

// intern normalises e (stripping a leading "!" into a polarity bit, per
// spec §3: "normalises !x to (x, false)"), interns the positive form at
// loc, and returns a Term reference at the resolved polarity.
func (ic *interner) intern(loc checks.Location, e checkexpr.Expr) logic.Term {
	polarity := true
	base := e
	if u, ok := e.(*checkexpr.Unary); ok && u.Op == "!" {
		base = u.Operand
		polarity = false
	}

	key := locationKey(loc) + "\x00" + exprKey(base)
	t, ok := ic.byKey[key]
	if !ok {
		t = &ConditionTerm{ID: ic.next, Location: loc, Value: base}
		ic.next++
		ic.byKey[key] = t
		ic.byID[t.ID] = t
		ic.order = append(ic.order, t)
	}
	return logic.Term{ID: t.ID, Polarity: polarity}
}

// recordContext ORs ctx into the term's accumulated When, widening the set
// of contexts in which the term is asked about.
func (ic *interner) recordContext(id logic.TermID, ctx logic.Disjunction) {
	t, ok := ic.byID[id]
	if !ok {
		return
	}
	t.When = logic.Or(t.When, ctx)
}

// orderedTerms returns every interned term in id (= first-seen) order.
func (ic *interner) orderedTerms() []*ConditionTerm {
	return ic.order
}

func locationKey(loc checks.Location) string {
	return strconv.Itoa(int(loc.Kind)) + ":" + fmt.Sprintf("%p", loc.Op)
}

// exprKey is a deterministic structural serialisation of a check
// expression, used only as an interning map key — never shown to a user,
// so it need not be pretty, only injective over the algebra's constructors.
func exprKey(e checkexpr.Expr) string {
	if e == nil {
		return "nil"
	}
	switch x := e.(type) {
	case *checkexpr.Binary:
		return "B(" + x.Op + "," + exprKey(x.Left) + "," + exprKey(x.Right) + ")"
	case *checkexpr.Unary:
		return "U(" + x.Op + "," + exprKey(x.Operand) + ")"
	case *checkexpr.Literal:
		return "L(" + strconv.Itoa(int(x.Kind)) + "," + fmt.Sprintf("%v", x.Value) + ")"
	case *checkexpr.Var:
		return "V(" + x.Name + ")"
	case *checkexpr.ResultVar:
		return "RV(" + x.Name + ")"
	case *checkexpr.Result:
		return "R"
	case *checkexpr.Field:
		return "F(" + x.Struct + "," + x.Field + "," + exprKey(x.Root) + ")"
	case *checkexpr.Deref:
		return "D(" + exprKey(x.Operand) + ")"
	case *checkexpr.Cond:
		return "C(" + exprKey(x.C) + "," + exprKey(x.T) + "," + exprKey(x.F) + ")"
	default:
		return fmt.Sprintf("?(%T)", e)
	}
}
