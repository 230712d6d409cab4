package collector

import (
	"weaver/internal/checkexpr"
	"weaver/internal/checks"
	"weaver/internal/ir"
	"weaver/internal/logic"
)

// ConditionTerm is one interned condition term (spec §3): the proposition
// "value holds at location", together with the (already-simplified) set of
// contexts in which the weaver ever needs to ask about it.
type ConditionTerm struct {
	ID       logic.TermID
	Location checks.Location
	Value    checkexpr.Expr
	When     logic.Disjunction
}

// RuntimeCheckEntry pairs a runtime check with its internal bookkeeping:
// seq is the order it was first encountered in, used only to make Collect's
// output deterministic.
type RuntimeCheckEntry struct {
	check *checks.RuntimeCheck
	seq   int
}

func (e *RuntimeCheckEntry) Location() checks.Location  { return e.check.Location }
func (e *RuntimeCheckEntry) Check() checks.Check        { return e.check.Check }
func (e *RuntimeCheckEntry) When() *logic.Disjunction   { return e.check.When }

// CollectedMethod is everything the injector needs to weave one method:
// its ordered condition terms, its ordered runtime checks, its call style,
// whether its body falls through without an explicit return, and the three
// flow-structural enumerations (spec §3's data model) the Injector's
// permission-threading and allocation-bookkeeping steps (§4.4 steps 3-4)
// key off of.
type CollectedMethod struct {
	Method            *ir.Method
	Terms             []*ConditionTerm
	Checks            []*RuntimeCheckEntry
	CallStyle         CallStyle
	HasImplicitReturn bool

	// Returns enumerates every Return op in the method body, at any nesting
	// depth, in left-to-right execution order.
	Returns []*ir.Return
	// Invokes enumerates every Invoke op in the method body, in the same
	// order, so the Injector's call-site threading (step 3) has a ready
	// work list without re-walking the body itself.
	Invokes []*ir.Invoke
	// Allocs enumerates every AllocStruct op in the method body — the sites
	// the Injector's allocation bookkeeping (step 4) must follow with an
	// _id assignment.
	Allocs []*ir.AllocStruct
	// FullWalkLocations is the set of locations Phase D (separation.go)
	// found needing a full permission walk, whether or not that walk ended
	// up emitting a separation check. The Injector does not read it.
	FullWalkLocations []checks.Location
}

// CollectedProgram is the Collector's full output: every method it could
// index and classify.
type CollectedProgram struct {
	Methods []*CollectedMethod
}

// ByName looks up a collected method, or returns nil.
func (p *CollectedProgram) ByName(name string) *CollectedMethod {
	for _, m := range p.Methods {
		if m.Method.Name == name {
			return m
		}
	}
	return nil
}
