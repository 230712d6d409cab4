package injector

import (
	"fmt"

	"weaver/internal/ir"
	"weaver/internal/logic"
)

// condVarName is the local variable name the injector binds a materialised
// condition term to (step 1): every reference to the term elsewhere in the
// emitted code reads this variable instead of recomputing the term's
// value, keeping each residual condition evaluated exactly once.
func condVarName(id logic.TermID) string {
	return fmt.Sprintf("$cond$%d", int(id))
}

// buildGuard folds a check's When disjunction into the boolean expression
// that gates it (spec §4.4 step 1: "guarded by when DNF folded via
// ||/&&"), referencing each term by its materialised condition variable.
// A nil disjunction means the check is unconditional and needs no guard.
func buildGuard(d *logic.Disjunction) ir.Expr {
	if d == nil {
		return nil
	}
	if len(*d) == 0 {
		return &ir.Literal{Kind: ir.LitBool, Value: false}
	}

	var disj ir.Expr
	for _, conj := range *d {
		var conjExpr ir.Expr
		if len(conj) == 0 {
			conjExpr = &ir.Literal{Kind: ir.LitBool, Value: true}
		}
		for _, term := range conj {
			var t ir.Expr = &ir.Var{Name: condVarName(term.ID)}
			if !term.Polarity {
				t = &ir.Unary{Op: "!", Operand: t}
			}
			if conjExpr == nil {
				conjExpr = t
			} else {
				conjExpr = &ir.Binary{Op: "&&", Left: conjExpr, Right: t}
			}
		}
		if disj == nil {
			disj = conjExpr
		} else {
			disj = &ir.Binary{Op: "||", Left: disj, Right: conjExpr}
		}
	}
	return disj
}
