// Package injector implements the weaver's Injector (spec §4.4): given a
// collector.CollectedProgram, it rewrites each method's op tree in place so
// that every collected condition term and runtime check actually executes.
package injector

import (
	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	"weaver/internal/collector"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// Inject rewrites every method body in program to materialise cm.Terms and
// enforce cm.Checks, for every collected method in cp. Methods program
// carries that cp never mentions (the collector found no verifier trace
// for them) are left untouched — Collect already reports that as a fatal
// error before the injector would ever see it.
//
// When any collected method needs a runtime permission check at all, the
// program first gains the shared scaffolding every call style's threading
// depends on (spec §4.4 step 3): the opaque permission-object struct and
// an _id field on every real struct. Per-method parameter lists are
// extended next, before any method body is rewritten, since a call site in
// one method reads another method's already-finalised CallStyle-driven
// signature.
func Inject(program *ir.Program, cp *collector.CollectedProgram) (*ir.Program, error) {
	tracking := requiresTracking(cp)
	if tracking {
		ensureFieldsStruct(program)
		addIDFields(program)
		for _, cm := range cp.Methods {
			addThreadedParams(cm)
		}
	}

	for _, cm := range cp.Methods {
		if err := injectMethod(program, cp, cm, tracking); err != nil {
			return nil, err
		}
	}
	return program, nil
}

func injectMethod(program *ir.Program, cp *collector.CollectedProgram, cm *collector.CollectedMethod, tracking bool) error {
	m := cm.Method
	p := newPlan()

	if tracking && cm.CallStyle == collector.CallMain {
		p.methodPre = append(p.methodPre, mainEntryOps()...)
	}

	// Bind the method's own returned value to the conventional result
	// local right before each return site, so Result/condition terms and
	// checks materialised at MethodPost can refer to it uniformly instead
	// of each carrying its own copy of the returned expression.
	for _, ret := range collectReturns(m.Body) {
		if ret.Value != nil {
			p.addBefore(ret, []ir.Op{&ir.Assign{Result: residual.ResultSentinel, Value: ret.Value}})
		}
	}

	// Step 1: materialise every condition term, in id order, ahead of the
	// checks at the same location, so a term is always bound by the time a
	// check's guard reads it. Each term is assigned unconditionally: its
	// own When does not gate the assignment.
	for _, t := range cm.Terms {
		op := &ir.Assign{
			Result: condVarName(t.ID),
			Value:  checkexpr.Lower(t.Value, residual.ResultSentinel, nil),
		}
		if err := addAtLocation(p, t.Location, []ir.Op{op}); err != nil {
			return err
		}
	}

	// Step 2: materialise every runtime check, guarded by its When.
	for _, c := range cm.Checks {
		ops, err := buildCheckOps(program, c.Check(), cm.CallStyle)
		if err != nil {
			return err
		}
		if guard := buildGuard(c.When()); guard != nil {
			ops = []ir.Op{&ir.If{Cond: guard, Then: ops}}
		}
		if err := addAtLocation(p, c.Location(), ops); err != nil {
			return err
		}
	}

	if tracking {
		// Step 3: thread permission objects across every call this method
		// makes (spec §4.4 step 3).
		for i, inv := range cm.Invokes {
			prologue, epilogue, err := callSiteThreading(program, cp, cm, inv, i)
			if err != nil {
				return err
			}
			if len(prologue) > 0 {
				p.addBefore(inv, prologue)
			}
			if len(epilogue) > 0 {
				p.addAfter(inv, epilogue)
			}
		}

		// Step 4: follow every allocation with its instance-counter
		// bookkeeping (spec §4.4 step 4).
		for i, alloc := range cm.Allocs {
			ops, err := allocBookkeepingOps(program, cm, alloc, i)
			if err != nil {
				return err
			}
			p.addAfter(alloc, ops)
		}

		// A PrecisePre callee's precondition is precise but its
		// postcondition is not: every permission it tracked precisely
		// during its own body must widen back into the caller-visible
		// dynamic object before it returns (spec §4.4 step 3).
		if cm.CallStyle == collector.CallPrecisePre {
			p.methodPost = append(p.methodPost, &ir.Invoke{
				Method: runtimeJoin,
				Args:   []ir.Expr{&ir.Var{Name: dynamicFieldsLocal}, &ir.Var{Name: staticFieldsLocal}},
			})
		}
	}

	m.Body = p.apply(m.Body, cm.HasImplicitReturn)
	return nil
}

// addAtLocation routes a planned insertion to the right plan bucket for
// loc's phase.
func addAtLocation(p *plan, loc checks.Location, ops []ir.Op) error {
	switch loc.Kind {
	case checks.LocPre:
		p.addBefore(loc.Op, ops)
	case checks.LocPost:
		p.addAfter(loc.Op, ops)
	case checks.LocLoopStart:
		p.addLoopStart(loc.Op.(*ir.While), ops)
	case checks.LocLoopEnd:
		p.addLoopEnd(loc.Op.(*ir.While), ops)
	case checks.LocMethodPre:
		p.methodPre = append(p.methodPre, ops...)
	case checks.LocMethodPost:
		p.methodPost = append(p.methodPost, ops...)
	default:
		return &unhandledLocationError{Kind: loc.Kind}
	}
	return nil
}

// collectReturns gathers every *ir.Return in body, at any nesting depth,
// in the order a left-to-right execution would reach them.
func collectReturns(ops []ir.Op) []*ir.Return {
	var out []*ir.Return
	for _, op := range ops {
		switch o := op.(type) {
		case *ir.Return:
			out = append(out, o)
		case *ir.If:
			out = append(out, collectReturns(o.Then)...)
			out = append(out, collectReturns(o.Else)...)
		case *ir.While:
			out = append(out, collectReturns(o.Body)...)
		}
	}
	return out
}

type unhandledLocationError struct {
	Kind checks.LocationKind
}

func (e *unhandledLocationError) Error() string {
	return "injector: unhandled location kind " + e.Kind.String()
}
