package collector

import "weaver/internal/ir"

// classifyCallStyle runs Phase F (spec §4.4 step 3): the entry point
// always uses CallMain; everything else is classified by how precise its
// own pre/postcondition are, since that precision is what the injector
// must thread permission objects by value versus widen at the boundary.
func classifyCallStyle(m *ir.Method) CallStyle {
	if m.IsMain {
		return CallMain
	}
	if containsImprecise(m.Pre) {
		return CallImprecise
	}
	if containsImprecise(m.Post) {
		return CallPrecisePre
	}
	return CallPrecise
}

func containsImprecise(e ir.Expr) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *ir.Imprecise:
		return true
	case *ir.Binary:
		return containsImprecise(x.Left) || containsImprecise(x.Right)
	case *ir.Unary:
		return containsImprecise(x.Operand)
	case *ir.Conditional:
		return containsImprecise(x.Cond) || containsImprecise(x.Then) || containsImprecise(x.Else)
	case *ir.Accessibility:
		return containsImprecise(x.Root)
	case *ir.PredicateInstance:
		for _, a := range x.Args {
			if containsImprecise(a) {
				return true
			}
		}
		return false
	case *ir.Field:
		return containsImprecise(x.Root)
	case *ir.Deref:
		return containsImprecise(x.Operand)
	default:
		return false
	}
}
