package collector

import "weaver/internal/ir"

// hasImplicitReturn runs Phase G (spec §4.3), grounded on the teacher's
// flow analyzer's hasReturn/afterReturn bookkeeping: it reports whether
// body can fall off its end without passing through an explicit Return or
// Error, which the injector must treat as an implicit void return site for
// permission-widening purposes.
func hasImplicitReturn(body []ir.Op) bool {
	return !terminatesOnEveryPath(body)
}

func terminatesOnEveryPath(ops []ir.Op) bool {
	for _, op := range ops {
		switch o := op.(type) {
		case *ir.Return:
			return true
		case *ir.Error:
			return true
		case *ir.If:
			if terminatesOnEveryPath(o.Then) && terminatesOnEveryPath(o.Else) {
				return true
			}
		case *ir.While:
			// An unconditional loop never falls through: this IR has no
			// break, so the only way out is a Return/Error inside the body,
			// already accounted for wherever that appears in its own
			// enclosing If chain.
			if isUnconditionallyTrue(o.Cond) {
				return true
			}
		}
	}
	return false
}

// isUnconditionallyTrue reports whether e is the literal boolean true, the
// only form of "unconditional loop" this IR can express (spec §4.3 Phase
// G).
func isUnconditionallyTrue(e ir.Expr) bool {
	lit, ok := e.(*ir.Literal)
	return ok && lit.Kind == ir.LitBool && lit.Value == true
}
