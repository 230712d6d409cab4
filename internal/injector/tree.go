package injector

import "weaver/internal/ir"

// plan's rewrite pass is grounded on the teacher's optimization passes
// (internal/ir/optimizations.go), which restructure a method body by
// walking it and rebuilding op slices wholesale rather than mutating a
// single instruction at a time.

// plan collects every insertion the Collector's output implies, keyed by
// the IR op it attaches to, before a single rewrite pass applies them all
// at once. Op identity is pointer identity (spec §3), so every map here is
// keyed directly by the ir.Op/*ir.While value.
type plan struct {
	before     map[ir.Op][]ir.Op
	after      map[ir.Op][]ir.Op
	loopStart  map[*ir.While][]ir.Op
	loopEnd    map[*ir.While][]ir.Op
	methodPre  []ir.Op
	methodPost []ir.Op
}

func newPlan() *plan {
	return &plan{
		before:    map[ir.Op][]ir.Op{},
		after:     map[ir.Op][]ir.Op{},
		loopStart: map[*ir.While][]ir.Op{},
		loopEnd:   map[*ir.While][]ir.Op{},
	}
}

func (p *plan) addBefore(op ir.Op, ops []ir.Op) {
	p.before[op] = append(p.before[op], ops...)
}

func (p *plan) addAfter(op ir.Op, ops []ir.Op) {
	p.after[op] = append(p.after[op], ops...)
}

func (p *plan) addLoopStart(w *ir.While, ops []ir.Op) {
	p.loopStart[w] = append(p.loopStart[w], ops...)
}

func (p *plan) addLoopEnd(w *ir.While, ops []ir.Op) {
	p.loopEnd[w] = append(p.loopEnd[w], ops...)
}

// apply rewrites body (and recursively every nested If/While body) into a
// new op slice with every planned insertion spliced in, then prepends
// methodPre and appends methodPost before every Return and at the tail if
// the body can fall through (spec §4.3 Phase G).
func (p *plan) apply(body []ir.Op, hasImplicitReturn bool) []ir.Op {
	rewritten := p.rewriteBody(body)

	out := make([]ir.Op, 0, len(rewritten)+len(p.methodPre)+len(p.methodPost))
	out = append(out, p.methodPre...)
	out = append(out, p.injectMethodPost(rewritten)...)
	if hasImplicitReturn {
		out = append(out, p.methodPost...)
	}
	return out
}

// injectMethodPost walks ops, inserting a copy of methodPost immediately
// before every Return (at any nesting depth), since a postcondition must
// hold at every exit, not just a fall-through one.
func (p *plan) injectMethodPost(ops []ir.Op) []ir.Op {
	if len(p.methodPost) == 0 {
		return ops
	}
	out := make([]ir.Op, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case *ir.Return:
			out = append(out, p.methodPost...)
			out = append(out, op)
		case *ir.If:
			o.Then = p.injectMethodPost(o.Then)
			o.Else = p.injectMethodPost(o.Else)
			out = append(out, op)
		case *ir.While:
			o.Body = p.injectMethodPost(o.Body)
			out = append(out, op)
		default:
			out = append(out, op)
		}
	}
	return out
}

// rewriteBody splices every before/after/loopStart/loopEnd insertion into
// ops, recursing into If branches and While bodies.
func (p *plan) rewriteBody(ops []ir.Op) []ir.Op {
	out := make([]ir.Op, 0, len(ops))
	for _, op := range ops {
		out = append(out, p.before[op]...)

		switch o := op.(type) {
		case *ir.If:
			o.Then = p.rewriteBody(o.Then)
			o.Else = p.rewriteBody(o.Else)
		case *ir.While:
			newBody := p.rewriteBody(o.Body)
			newBody = append(append([]ir.Op{}, p.loopStart[o]...), newBody...)
			newBody = append(newBody, p.loopEnd[o]...)
			o.Body = newBody
		}

		out = append(out, op)
		out = append(out, p.after[op]...)
	}
	return out
}
