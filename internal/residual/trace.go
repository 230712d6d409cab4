package residual

// VOpKind mirrors the IR op tree's structural shape one-to-one (spec §4.3
// Phase A: "Matching rules between IR ops and verifier statements are
// one-to-one modulo the exceptions below"), so the collector can walk an
// ir.Method body and a MethodTrace in lock-step.
type VOpKind int

const (
	VOpIf VOpKind = iota
	VOpWhile
	VOpInvoke
	VOpAllocValue
	VOpAllocStruct
	VOpAssign
	VOpAssignMember
	VOpFold
	VOpUnfold
	VOpAssertSpecification
	VOpError
	VOpReturnValue
)

// VOp is one verifier statement, carrying the node ids of every
// specification sub-tree reachable from it: an invariant's nodes for a
// while, a call's substituted pre/postcondition nodes for an invoke, a
// fold/unfold's predicate-body nodes, or an inline assertion's nodes.
//
// ID names the verifier node that stands for "this operation's own point"
// (its condition, its call-site, etc.) — the node branch-condition frames
// (BranchFrame.AtNode) and simple Value-position checks resolve against.
type VOp struct {
	ID   NodeID
	Kind VOpKind

	Then, Else []*VOp // VOpIf
	Body       []*VOp // VOpWhile

	InvariantNodes      []NodeID // VOpWhile
	PreconditionNodes   []NodeID // VOpInvoke: callee precondition, substituted
	PostconditionNodes  []NodeID // VOpInvoke: callee postcondition, substituted
	PredicateNodes      []NodeID // VOpFold / VOpUnfold
	AssertNodes         []NodeID // VOpAssertSpecification
}

// MethodTrace is the verifier's statement sequence for one method, paired
// one-to-one (modulo the documented exceptions) with ir.Method.Body.
type MethodTrace struct {
	PreNodes  []NodeID // method precondition's own spec nodes
	PostNodes []NodeID // method postcondition's own spec nodes
	Body      []*VOp
}

// ProgramTrace maps a method name to its verifier trace.
type ProgramTrace map[string]*MethodTrace
