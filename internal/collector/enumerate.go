package collector

import "weaver/internal/ir"

// enumerateFlow walks body, at any nesting depth, collecting the three
// flow-structural enumerations spec §3's data model says a collected
// method must carry: its Return ops, its Invoke sites, and its struct
// allocations — the work lists the Injector's permission-threading and
// allocation-bookkeeping steps (spec §4.4 steps 3-4) consume directly
// instead of re-walking the body themselves.
func enumerateFlow(body []ir.Op) (returns []*ir.Return, invokes []*ir.Invoke, allocs []*ir.AllocStruct) {
	var walk func([]ir.Op)
	walk = func(ops []ir.Op) {
		for _, op := range ops {
			switch o := op.(type) {
			case *ir.Return:
				returns = append(returns, o)
			case *ir.Invoke:
				invokes = append(invokes, o)
			case *ir.AllocStruct:
				allocs = append(allocs, o)
			case *ir.If:
				walk(o.Then)
				walk(o.Else)
			case *ir.While:
				walk(o.Body)
			}
		}
	}
	walk(body)
	return returns, invokes, allocs
}
