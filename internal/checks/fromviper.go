package checks

import (
	"weaver/internal/checkexpr"
	"weaver/internal/residual"
)

// FromViper implements Check::from_viper (spec §4.2): a field-accessibility
// or predicate-accessibility verifier formula lowers to the matching
// permission Check; anything else is a plain boolean formula, lowered via
// checkexpr.FromViper and wrapped as Expr.
func FromViper(n residual.VNode) (Check, error) {
	switch x := n.(type) {
	case *residual.VFieldAccessPredicate:
		ref, err := fieldRefFromViper(x.Access)
		if err != nil {
			return nil, err
		}
		return &FieldAccessibility{Field: ref}, nil

	case *residual.VPredicateAccess:
		ref, err := predicateRefFromViper(x.Name, x.Args)
		if err != nil {
			return nil, err
		}
		return &PredicateAccessibility{Predicate: ref}, nil

	case *residual.VPredicateAccessPredicate:
		ref, err := predicateRefFromViper(x.Name, x.Args)
		if err != nil {
			return nil, err
		}
		return &PredicateAccessibility{Predicate: ref}, nil

	default:
		e, err := checkexpr.FromViper(n)
		if err != nil {
			return nil, err
		}
		return &Expr{E: e}, nil
	}
}

func fieldRefFromViper(a *residual.VFieldAccess) (FieldRef, error) {
	// a *VFieldAccess naming an acc() target is always struct$field — the
	// pointer-sentinel form never appears as the subject of an
	// accessibility assertion, since you cannot hold acc() over a raw
	// pointer dereference, only over a named struct field.
	parsed, err := checkexpr.FromViper(a)
	if err != nil {
		return FieldRef{}, err
	}
	fe, ok := parsed.(*checkexpr.Field)
	if !ok {
		return FieldRef{}, &invalidSpecError{msg: "acc() target is not a struct field access"}
	}
	return FieldRef{Root: fe.Root, Struct: fe.Struct, Field: fe.Field}, nil
}

func predicateRefFromViper(name string, args []residual.VNode) (PredicateRef, error) {
	lowered := make([]checkexpr.Expr, len(args))
	for i, a := range args {
		e, err := checkexpr.FromViper(a)
		if err != nil {
			return PredicateRef{}, err
		}
		lowered[i] = e
	}
	return PredicateRef{Name: name, Args: lowered}, nil
}

type invalidSpecError struct{ msg string }

func (e *invalidSpecError) Error() string { return e.msg }
