package checkexpr

import (
	"strings"

	pkgerrors "github.com/pkg/errors"

	"weaver/internal/residual"
)

// FromViper translates a verifier AST node into the check algebra (spec
// §4.2). It fails (with a wrapped error identifying the unhandled
// construct) on any VNode kind it does not model — from_viper never
// guesses.
func FromViper(n residual.VNode) (Expr, error) {
	switch x := n.(type) {
	case *residual.VBinary:
		if x.Op == "!=" {
			left, err := FromViper(x.Left)
			if err != nil {
				return nil, err
			}
			right, err := FromViper(x.Right)
			if err != nil {
				return nil, err
			}
			return &Unary{Op: "!", Operand: &Binary{Op: "==", Left: left, Right: right}}, nil
		}
		left, err := FromViper(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := FromViper(x.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: x.Op, Left: left, Right: right}, nil

	case *residual.VUnary:
		inner, err := FromViper(x.Operand)
		if err != nil {
			return nil, err
		}
		if x.Op == "!" {
			// !(!x) -> x
			if u, ok := inner.(*Unary); ok && u.Op == "!" {
				return u.Operand, nil
			}
		}
		return &Unary{Op: x.Op, Operand: inner}, nil

	case *residual.VLit:
		return &Literal{Kind: LiteralKind(x.Kind), Value: x.Value}, nil

	case *residual.VLocal:
		switch {
		case x.Name == residual.ResultSentinel:
			return &Result{}, nil
		case strings.HasPrefix(x.Name, residual.ResultTempPrefix):
			return &ResultVar{Name: x.Name}, nil
		default:
			return &Var{Name: x.Name}, nil
		}

	case *residual.VFieldAccess:
		root, err := FromViper(x.Root)
		if err != nil {
			return nil, err
		}
		if x.IsPointerSentinel() {
			return &Deref{Operand: root}, nil
		}
		parts := strings.SplitN(x.FieldName, "$", 2)
		if len(parts) != 2 {
			return nil, pkgerrors.Errorf("checkexpr: field access name %q does not follow the struct$field convention", x.FieldName)
		}
		return &Field{Root: root, Struct: parts[0], Field: parts[1]}, nil

	case *residual.VCond:
		c, err := FromViper(x.C)
		if err != nil {
			return nil, err
		}
		t, err := FromViper(x.T)
		if err != nil {
			return nil, err
		}
		f, err := FromViper(x.F)
		if err != nil {
			return nil, err
		}
		return &Cond{C: c, T: t, F: f}, nil

	default:
		return nil, pkgerrors.Errorf("checkexpr: from_viper cannot translate node of type %T", n)
	}
}
