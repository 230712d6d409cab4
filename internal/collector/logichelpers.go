package collector

import "weaver/internal/logic"

// simplifyTermWhen runs the Phase E simplifier over a term's accumulated
// context set.
func simplifyTermWhen(d logic.Disjunction) logic.Disjunction {
	return logic.Simplify(d)
}

// simplifyCheckWhen runs the Phase E simplifier over a check's guard,
// preserving "nil means unconditional".
func simplifyCheckWhen(w *logic.Disjunction) *logic.Disjunction {
	if w == nil {
		return nil
	}
	s := logic.Simplify(*w)
	return &s
}

// referencedTermSet computes the set of term ids transitively reachable
// from every check's guard: a term is live if some check's When names it
// directly, or if some other live term's When names it. Terms only ever
// reference strictly smaller ids (spec §3's acyclicity invariant), so one
// decreasing pass over ids after seeding from the checks is enough.
func referencedTermSet(terms []*ConditionTerm, cs []*RuntimeCheckEntry) map[logic.TermID]bool {
	byID := make(map[logic.TermID]*ConditionTerm, len(terms))
	for _, t := range terms {
		byID[t.ID] = t
	}

	live := map[logic.TermID]bool{}
	for _, c := range cs {
		if c.check.When == nil {
			continue
		}
		for id := range logic.ReferencedTerms(*c.check.When) {
			live[id] = true
		}
	}

	for i := len(terms) - 1; i >= 0; i-- {
		t := terms[i]
		if !live[t.ID] {
			continue
		}
		for id := range logic.ReferencedTerms(t.When) {
			live[id] = true
		}
	}

	return live
}
