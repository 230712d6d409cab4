// Package collector implements the weaver's Collector (spec §4.3): it
// walks an ir.Program alongside the external verifier's residual-check
// table and statement trace, and produces, per method, the ordered set of
// condition terms and runtime checks the injector must materialise.
//
// The walk runs in seven phases (A–G), matching spec §4.3's own numbering:
// structural indexing, check collection and position reclassification,
// condition-term interning, permission classification and separation
// enumeration, DNF simplification and ordering, call-style classification,
// and implicit-return analysis. Phases run in sequence per method, but
// indexing errors across every method in the program are batched together
// (grounded on the teacher's semantic.Analyzer, which reports every
// semantic fault it finds in one pass instead of stopping at the first).
package collector

import (
	"sort"

	weaverrors "weaver/internal/errors"
	"weaver/internal/ir"
	"weaver/internal/residual"
)

// CallStyle is the calling convention the injector must use to thread
// permission objects through a method's own body and into its callees
// (spec §4.4 step 3).
type CallStyle int

const (
	// CallMain: the method is the program's entry point. It owns the
	// process-lifetime instance counter and allocates its own permission
	// objects from nothing.
	CallMain CallStyle = iota
	// CallPrecise: neither the method's precondition nor its
	// postcondition carries an Imprecise marker; only the instance counter
	// is threaded across the call boundary, no permission object.
	CallPrecise
	// CallPrecisePre: the method's precondition is precise but its
	// postcondition is imprecise; permission objects flow in, and the
	// callee joins its static object into the dynamic one before it
	// returns.
	CallPrecisePre
	// CallImprecise: the method's precondition itself is imprecise. The
	// call site may still know some precise permissions from whatever
	// non-imprecise conjuncts the precondition carries, so the callee is
	// threaded the same (counter, dynamic, static) triple a CallPrecisePre
	// callee is; unlike CallPrecisePre, though, its own checks always
	// resolve against the dynamic object, since nothing about its own
	// precondition is trusted to be complete.
	CallImprecise
)

// Collect runs the Collector over every method in program, against table
// (the verifier's residual-check map) and trace (the verifier's per-method
// statement trace). When every method indexes and classifies cleanly it
// returns them all; otherwise the faults of every failing method are
// batched and returned together as a non-nil error with a nil program,
// per spec §7.
func Collect(program *ir.Program, table residual.Table, trace residual.ProgramTrace) (*CollectedProgram, error) {
	var batch weaverrors.Batch
	out := &CollectedProgram{}

	for _, m := range program.Methods {
		mt, ok := trace[m.Name]
		if !ok {
			batch.Add(weaverrors.New(weaverrors.CodeStructuralMismatch, m.Name, ir.Position{},
				"no verifier trace for method %q", m.Name))
			continue
		}

		cm, err := collectMethod(program, m, table, mt)
		if err != nil {
			batch.Add(err)
			continue
		}
		out.Methods = append(out.Methods, cm)
	}

	if batch.HasErrors() {
		return nil, batch.Err()
	}
	return out, nil
}

func collectMethod(program *ir.Program, m *ir.Method, table residual.Table, mt *residual.MethodTrace) (*CollectedMethod, error) {
	// Phase A: structural indexing.
	idx, err := indexMethod(m, mt)
	if err != nil {
		return nil, err
	}

	cm := &CollectedMethod{Method: m}

	// Phase B + C: check collection, position reclassification, and
	// condition-term interning, walked together since interning needs the
	// same index and the same running branch-condition stack machinery
	// used to resolve each check's own location.
	ic := newInterner()
	classified, err := collectChecks(m, table, idx, ic)
	if err != nil {
		return nil, err
	}

	// Phase D: permission classification and separation enumeration.
	added, fullWalks, err := classifySeparation(program, m, classified)
	if err != nil {
		return nil, err
	}
	classified = append(classified, added...)
	cm.FullWalkLocations = fullWalks

	// Phase E: simplify and order.
	terms := ic.orderedTerms()
	for _, t := range terms {
		t.When = simplifyTermWhen(t.When)
	}
	checksOut := make([]*RuntimeCheckEntry, 0, len(classified))
	for _, c := range classified {
		c.check.check.When = simplifyCheckWhen(c.check.check.When)
		checksOut = append(checksOut, c.check)
	}
	sortChecks(checksOut)

	referenced := referencedTermSet(terms, checksOut)
	liveTerms := make([]*ConditionTerm, 0, len(terms))
	for _, t := range terms {
		if referenced[t.ID] {
			liveTerms = append(liveTerms, t)
		}
	}

	cm.Terms = liveTerms
	cm.Checks = checksOut

	// Phase F: call-style classification.
	cm.CallStyle = classifyCallStyle(m)

	// Phase G: implicit-return / fall-through analysis.
	cm.HasImplicitReturn = hasImplicitReturn(m.Body)

	cm.Returns, cm.Invokes, cm.Allocs = enumerateFlow(m.Body)

	return cm, nil
}

// sortChecks orders checks by first-seen order: residual checks in
// ascending table node-id order, then the separation checks Phase D added.
// Checks at different locations may interleave in the result; the Injector
// places each check at its own location, so the checks sharing one
// location keep this relative order.
func sortChecks(cs []*RuntimeCheckEntry) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].seq < cs[j].seq
	})
}
