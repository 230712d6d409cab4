package collector

import (
	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
	"weaver/internal/logic"
)

// permGroup is every classified check sharing one Location, kept together
// so Phase D can decide, as a unit, whether that location needs a full
// permission walk.
type permGroup struct {
	loc      checks.Location
	classTag string
	anchorOp ir.Op
	entries  []*classifiedCheck
}

// classifySeparation runs Phase D (spec §4.3): it marks every location
// that is a method boundary or a named non-Value position as needing a
// full permission walk, re-traverses that location's originating
// specification tree, and — only when more than one distinct permission is
// enumerated there — appends one separation check per enumerated
// permission. It also returns every location marked as needing the walk in
// the first place, whether or not it ended up producing a separation check
// (spec §3's "set of locations requiring full permission walks"), for
// CollectedMethod.FullWalkLocations.
func classifySeparation(program *ir.Program, m *ir.Method, classified []*classifiedCheck) ([]*classifiedCheck, []checks.Location, error) {
	groups := map[string]*permGroup{}
	var order []*permGroup
	for _, cc := range classified {
		key := locationKey(cc.check.check.Location)
		g, ok := groups[key]
		if !ok {
			g = &permGroup{loc: cc.check.check.Location, classTag: cc.classTag, anchorOp: cc.check.check.Location.Op}
			groups[key] = g
			order = append(order, g)
		}
		g.entries = append(g.entries, cc)
	}

	var added []*classifiedCheck
	var fullWalks []checks.Location
	nextSeq := len(classified)
	for _, g := range order {
		if !needsFullWalk(g) {
			continue
		}
		fullWalks = append(fullWalks, g.loc)
		specExpr, err := originatingSpec(program, m, g)
		if err != nil {
			return nil, nil, err
		}
		if specExpr == nil {
			continue
		}
		perms, err := enumeratePermissions(m.Name, specExpr)
		if err != nil {
			return nil, nil, err
		}
		if len(perms) < 2 {
			continue
		}
		for _, p := range perms {
			entry, err := separationEntry(g.loc, p, g.entries, nextSeq)
			if err != nil {
				return nil, nil, err
			}
			nextSeq++
			cc := &classifiedCheck{check: entry, classTag: g.classTag}
			g.entries = append(g.entries, cc)
			added = append(added, cc)
		}
	}

	return added, fullWalks, nil
}

// CalleePreciseFieldPermissions returns the field permissions named by
// callee's precondition's precise part, with every formal substituted for
// inv's actual argument at the same position — the permission set the
// Injector's call-site threading (spec §4.4 step 3) must build a fresh
// static object from before crossing into callee. Predicate permissions in
// the precondition are not reported here: there is no declared struct field
// index to key a predicate's runtime slot by at a call site, so the
// Injector only threads field permissions this way (see DESIGN.md).
func CalleePreciseFieldPermissions(callee *ir.Method, inv *ir.Invoke) ([]checks.FieldRef, error) {
	subst, err := bindArgs(callee, inv)
	if err != nil {
		return nil, err
	}
	pre := substitute(callee.Pre, subst)
	perms, err := enumeratePermissions(callee.Name, pre)
	if err != nil {
		return nil, err
	}
	var out []checks.FieldRef
	for _, p := range perms {
		if p.kind == permField {
			out = append(out, p.field)
		}
	}
	return out, nil
}

func needsFullWalk(g *permGroup) bool {
	if g.loc.Kind == checks.LocMethodPre || g.loc.Kind == checks.LocMethodPost {
		return true
	}
	return g.classTag != "Value"
}

// originatingSpec resolves the ir.Expr tree Phase D must re-traverse for a
// full-permission-walk location: the callee's (substituted) pre/
// postcondition for a call site, the invariant for a loop, the method's
// own pre/postcondition for a method boundary, or nil for Fold/Unfold
// (handled separately as a single opaque predicate permission, spec §9).
func originatingSpec(program *ir.Program, m *ir.Method, g *permGroup) (ir.Expr, error) {
	switch g.loc.Kind {
	case checks.LocMethodPre:
		return m.Pre, nil
	case checks.LocMethodPost:
		return m.Post, nil
	}

	switch g.classTag {
	case "PreLoop", "PostLoop", "InvariantStart", "InvariantEnd":
		w, ok := g.anchorOp.(*ir.While)
		if !ok {
			return nil, weaverrors.New(weaverrors.CodeInvalidSpecification, m.Name, ir.Position{},
				"loop-positioned full-walk location is not anchored to a While op")
		}
		return w.Invariant, nil

	case "PreInvoke", "PostInvoke":
		inv, ok := g.anchorOp.(*ir.Invoke)
		if !ok {
			return nil, weaverrors.New(weaverrors.CodeInvalidSpecification, m.Name, ir.Position{},
				"call-positioned full-walk location is not anchored to an Invoke op")
		}
		callee := program.MethodByName(inv.Method)
		if callee == nil {
			return nil, weaverrors.New(weaverrors.CodeUnknownVariable, m.Name, ir.Position{},
				"call to unknown method %q", inv.Method)
		}
		subst, err := bindArgs(callee, inv)
		if err != nil {
			return nil, err
		}
		if g.classTag == "PreInvoke" {
			return substitute(callee.Pre, subst), nil
		}
		return substitute(callee.Post, subst), nil

	case "Fold", "Unfold":
		// A Fold/Unfold's full walk is a single opaque predicate permission:
		// the weaver never inlines a predicate's own body (spec §9 Open
		// Question), so there is never more than one permission here and
		// no separation check is ever emitted for it.
		return nil, nil

	default:
		return nil, nil
	}
}

// bindArgs maps each callee formal parameter name to the call site's
// actual argument expression, by position.
func bindArgs(callee *ir.Method, inv *ir.Invoke) (map[string]ir.Expr, error) {
	if len(callee.Params) != len(inv.Args) {
		return nil, weaverrors.New(weaverrors.CodeUnknownVariable, callee.Name, ir.Position{},
			"call to %q passes %d arguments, method declares %d parameters",
			callee.Name, len(inv.Args), len(callee.Params))
	}
	out := make(map[string]ir.Expr, len(callee.Params))
	for i, p := range callee.Params {
		out[p.Name] = inv.Args[i]
	}
	return out, nil
}

// substitute replaces every Var in e naming a bound formal with its actual
// argument expression; every other node is copied structurally.
func substitute(e ir.Expr, subst map[string]ir.Expr) ir.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ir.Var:
		if actual, ok := subst[x.Name]; ok {
			return actual
		}
		return x
	case *ir.Imprecise:
		return &ir.Imprecise{Inner: substitute(x.Inner, subst)}
	case *ir.Accessibility:
		return &ir.Accessibility{Root: substitute(x.Root, subst), Struct: x.Struct, Field: x.Field}
	case *ir.PredicateInstance:
		args := make([]ir.Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = substitute(a, subst)
		}
		return &ir.PredicateInstance{Name: x.Name, Args: args}
	case *ir.Conditional:
		return &ir.Conditional{Cond: substitute(x.Cond, subst), Then: substitute(x.Then, subst), Else: substitute(x.Else, subst)}
	case *ir.Binary:
		return &ir.Binary{Op: x.Op, Left: substitute(x.Left, subst), Right: substitute(x.Right, subst)}
	case *ir.Unary:
		return &ir.Unary{Op: x.Op, Operand: substitute(x.Operand, subst)}
	case *ir.Field:
		return &ir.Field{Root: substitute(x.Root, subst), Struct: x.Struct, Field: x.Field}
	case *ir.Deref:
		return &ir.Deref{Operand: substitute(x.Operand, subst)}
	default:
		return e
	}
}

type permKind int

const (
	permField permKind = iota
	permPredicate
)

type permEntry struct {
	kind  permKind
	field checks.FieldRef
	pred  checks.PredicateRef
}

func permKey(p permEntry) string {
	if p.kind == permField {
		return "F:" + fieldRefKey(p.field)
	}
	return "P:" + predicateRefKey(p.pred)
}

// enumeratePermissions implements Phase D's permission enumeration (spec
// §4.3): it descends through "&&" and the precise part of an Imprecise
// marker, collects every Accessibility/PredicateInstance leaf, and splits
// a Conditional into both branches (an approximation — spec §4.3 notes
// path conditions should be conjoined; the weaver instead treats both
// branches' permissions as potentially co-occurring, which only ever
// widens the set of separation checks it emits, never narrows it).
func enumeratePermissions(method string, e ir.Expr) ([]permEntry, error) {
	var out []permEntry
	seen := map[string]bool{}
	var walk func(ir.Expr) error
	walk = func(e ir.Expr) error {
		switch x := e.(type) {
		case nil:
			return nil
		case *ir.Binary:
			if x.Op == "&&" {
				if err := walk(x.Left); err != nil {
					return err
				}
				return walk(x.Right)
			}
			return nil
		case *ir.Imprecise:
			return walk(x.Inner)
		case *ir.Conditional:
			if err := walk(x.Then); err != nil {
				return err
			}
			return walk(x.Else)
		case *ir.Accessibility:
			root, err := irValueToCheckExpr(x.Root)
			if err != nil {
				return weaverrors.New(weaverrors.CodeInvalidSpecification, method, ir.Position{}, "%v", err)
			}
			p := permEntry{kind: permField, field: checks.FieldRef{Root: root, Struct: x.Struct, Field: x.Field}}
			if k := permKey(p); !seen[k] {
				seen[k] = true
				out = append(out, p)
			}
			return nil
		case *ir.PredicateInstance:
			args := make([]checkexpr.Expr, len(x.Args))
			for i, a := range x.Args {
				ce, err := irValueToCheckExpr(a)
				if err != nil {
					return weaverrors.New(weaverrors.CodeInvalidSpecification, method, ir.Position{}, "%v", err)
				}
				args[i] = ce
			}
			p := permEntry{kind: permPredicate, pred: checks.PredicateRef{Name: x.Name, Args: args}}
			if k := permKey(p); !seen[k] {
				seen[k] = true
				out = append(out, p)
			}
			return nil
		default:
			return nil
		}
	}
	if err := walk(e); err != nil {
		return nil, err
	}
	return out, nil
}

// irValueToCheckExpr lowers an ir.Expr known to carry no permission nodes
// (a field-access or predicate-argument root) into the check expression
// algebra, for embedding in a FieldRef/PredicateRef.
func irValueToCheckExpr(e ir.Expr) (checkexpr.Expr, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case *ir.Binary:
		l, err := irValueToCheckExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := irValueToCheckExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return &checkexpr.Binary{Op: x.Op, Left: l, Right: r}, nil
	case *ir.Unary:
		o, err := irValueToCheckExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		return &checkexpr.Unary{Op: x.Op, Operand: o}, nil
	case *ir.Literal:
		return &checkexpr.Literal{Kind: checkexpr.LiteralKind(x.Kind), Value: x.Value}, nil
	case *ir.Var:
		return &checkexpr.Var{Name: x.Name}, nil
	case *ir.ResultVar:
		return &checkexpr.ResultVar{Name: x.Name}, nil
	case *ir.Result:
		return &checkexpr.Result{}, nil
	case *ir.Field:
		root, err := irValueToCheckExpr(x.Root)
		if err != nil {
			return nil, err
		}
		return &checkexpr.Field{Root: root, Struct: x.Struct, Field: x.Field}, nil
	case *ir.Deref:
		o, err := irValueToCheckExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		return &checkexpr.Deref{Operand: o}, nil
	case *ir.Conditional:
		c, err := irValueToCheckExpr(x.Cond)
		if err != nil {
			return nil, err
		}
		t, err := irValueToCheckExpr(x.Then)
		if err != nil {
			return nil, err
		}
		f, err := irValueToCheckExpr(x.Else)
		if err != nil {
			return nil, err
		}
		return &checkexpr.Cond{C: c, T: t, F: f}, nil
	default:
		return nil, &unsupportedPermRootError{kind: e}
	}
}

type unsupportedPermRootError struct{ kind ir.Expr }

func (e *unsupportedPermRootError) Error() string {
	return "permission reference root contains a nested permission node, which the check algebra cannot express"
}

// separationEntry builds one separation check for permission p at loc,
// reusing the When guard of a matching accessibility check already present
// in existing (if any), so a conditionally-required permission's
// separation check is guarded the same way its access is.
func separationEntry(loc checks.Location, p permEntry, existing []*classifiedCheck, seq int) (*RuntimeCheckEntry, error) {
	var when *logic.Disjunction
	for _, cc := range existing {
		switch x := cc.check.check.Check.(type) {
		case *checks.FieldAccessibility:
			if p.kind == permField && fieldRefKey(x.Field) == fieldRefKey(p.field) {
				when = cc.check.check.When
			}
		case *checks.PredicateAccessibility:
			if p.kind == permPredicate && predicateRefKey(x.Predicate) == predicateRefKey(p.pred) {
				when = cc.check.check.When
			}
		}
	}

	var check checks.Check
	if p.kind == permField {
		check = &checks.FieldSeparation{Field: p.field}
	} else {
		check = &checks.PredicateSeparation{Predicate: p.pred}
	}

	entry := &RuntimeCheckEntry{
		check: &checks.RuntimeCheck{Location: loc, Check: check, When: when},
		seq:   seq,
	}
	return entry, nil
}
