package checkexpr

import "weaver/internal/ir"

// Lower turns a check expression into the executable IR expression the
// injector emits as the right-hand side of a materialised condition
// variable or a guarded assert call (spec §4.4 step 1 and 2). Result and
// ResultVar are lowered to the conventional local variable names the
// injector binds at a method's return sites: resultName for Result, and
// resultVarNames[name] for a ResultVar of that name.
func Lower(e Expr, resultName string, resultVarNames map[string]string) ir.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *Binary:
		return &ir.Binary{Op: x.Op, Left: Lower(x.Left, resultName, resultVarNames), Right: Lower(x.Right, resultName, resultVarNames)}
	case *Unary:
		return &ir.Unary{Op: x.Op, Operand: Lower(x.Operand, resultName, resultVarNames)}
	case *Literal:
		return &ir.Literal{Kind: ir.LiteralKind(x.Kind), Value: x.Value}
	case *Var:
		return &ir.Var{Name: x.Name}
	case *ResultVar:
		name := x.Name
		if mapped, ok := resultVarNames[x.Name]; ok {
			name = mapped
		}
		return &ir.Var{Name: name}
	case *Result:
		return &ir.Var{Name: resultName}
	case *Field:
		return &ir.Field{Root: Lower(x.Root, resultName, resultVarNames), Struct: x.Struct, Field: x.Field}
	case *Deref:
		return &ir.Deref{Operand: Lower(x.Operand, resultName, resultVarNames)}
	case *Cond:
		return &ir.Conditional{Cond: Lower(x.C, resultName, resultVarNames), Then: Lower(x.T, resultName, resultVarNames), Else: Lower(x.F, resultName, resultVarNames)}
	default:
		panic("checkexpr: unreachable expr kind in Lower")
	}
}
