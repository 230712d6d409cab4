package residual

// PositionTag is the closed set of positions a residual check's table entry
// can carry (spec §6): either "Value" or one of the four loop phases.
type PositionTag int

const (
	PosValue PositionTag = iota
	PosLoopBefore
	PosLoopAfter
	PosLoopBegin
	PosLoopEnd
)

// Refinement further qualifies a Value position: the check arose while
// verifying a call, a fold, or an unfold.
type Refinement int

const (
	RefineNone Refinement = iota
	RefineInCall
	RefineInFold
	RefineInUnfold
)

// BranchFrame is one frame of a check's branch-condition stack (spec §6):
// the branch was taken because Cond held at the node AtNode; Origin, when
// set, marks that this frame originates inside a nested callee's
// pre/postcondition rather than the enclosing method's own control flow.
type BranchFrame struct {
	Cond   VNode
	AtNode NodeID
	Origin *NodeID
}

// CheckEntry is one verifier-reported residual obligation.
type CheckEntry struct {
	// Formula is the failing assertion: either a plain boolean VNode (to be
	// lowered through from_viper into an Expr check) or one of
	// VFieldAccessPredicate / VPredicateAccess / VPredicateAccessPredicate.
	Formula VNode
	// Context is the node id of the containing specification clause (used
	// both to resolve this check's Location and, for loop invariants, to
	// detect the "outside the invariant tree" verifier artefact).
	Context     NodeID
	Position    PositionTag
	Refinement  Refinement
	BranchStack []BranchFrame
}

// Table maps a verifier node id to the residual checks tied to it.
type Table map[NodeID][]CheckEntry
