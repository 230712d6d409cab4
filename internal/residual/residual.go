// Package residual defines the shape of the external verifier's output:
// the residual-check table (§6 "Input: residual-check table") and a small
// closed verifier-AST node type (VNode) sufficient to exercise the
// from_viper conversion rules of spec §4.2.
//
// The verifier itself is an external collaborator (spec §1); this package
// only models the wire shape the weaver is handed.
package residual

// NodeID identifies a node in the verifier's own AST/statement numbering.
// The weaver never allocates these; it only looks them up.
type NodeID int

// VNode is the closed set of verifier-AST shapes from_viper (spec §4.2)
// knows how to translate.
type VNode interface {
	isVNode()
}

// VBinary covers comparison, boolean, and arithmetic binary operators,
// including "!=" (which from_viper rewrites to Not(Eq(...))).
type VBinary struct {
	Op          string
	Left, Right VNode
}

func (*VBinary) isVNode() {}

// VUnary covers "!" (logical not) and "-" (arithmetic negation).
type VUnary struct {
	Op      string
	Operand VNode
}

func (*VUnary) isVNode() {}

// VLitKind mirrors the literal kinds the check algebra supports.
type VLitKind int

const (
	VLitInt VLitKind = iota
	VLitChar
	VLitBool
	VLitString
	VLitNull
)

// VLit is a literal constant.
type VLit struct {
	Kind  VLitKind
	Value interface{}
}

func (*VLit) isVNode() {}

// VLocal is a local-variable reference. The verifier encodes the method's
// return value as the local named "$result", and a multi-valued method's
// Nth result temporary as a variable whose name carries ResultTempPrefix.
type VLocal struct {
	Name string
}

func (*VLocal) isVNode() {}

// ResultTempPrefix marks a VLocal name as a result-temporary reference
// rather than an ordinary variable.
const ResultTempPrefix = "$result$"

// ResultSentinel is the verifier's name for the method's return value.
const ResultSentinel = "$result"

// Pointer-value field-name sentinels: the verifier represents a pointer's
// pointee as one of exactly three synthetic fields, keyed by the pointee's
// primitive type, because Viper-style field access must be statically
// typed. from_viper recognizes all three and rewrites the access to a
// plain Deref.
const (
	SentinelIntVal  = "$int_val"
	SentinelBoolVal = "$bool_val"
	SentinelRefVal  = "$ref_val"
)

func isPointerSentinel(field string) bool {
	switch field {
	case SentinelIntVal, SentinelBoolVal, SentinelRefVal:
		return true
	default:
		return false
	}
}

// VFieldAccess is a field access on Root. FieldName is either one of the
// three pointer-value sentinels (in which case from_viper produces a
// Deref) or a name of the form "struct$field" (in which case from_viper
// produces a Field).
type VFieldAccess struct {
	Root      VNode
	FieldName string
}

func (*VFieldAccess) isVNode() {}

// IsPointerSentinel reports whether FieldName is one of the three
// synthetic pointer-value field names.
func (f *VFieldAccess) IsPointerSentinel() bool { return isPointerSentinel(f.FieldName) }

// VCond is c ? t : f.
type VCond struct {
	C, T, F VNode
}

func (*VCond) isVNode() {}

// VFieldAccessPredicate is acc(access): a field accessibility assertion,
// not a plain boolean value — Check::from_viper maps it to
// checks.FieldAccessibility, never to a checkexpr.Expr.
type VFieldAccessPredicate struct {
	Access *VFieldAccess
}

func (*VFieldAccessPredicate) isVNode() {}

// VPredicateAccess and VPredicateAccessPredicate are a predicate instance's
// two surface forms in the verifier's AST (an instance reference and an
// accessibility-wrapped instance reference); both map to
// checks.PredicateAccessibility.
type VPredicateAccess struct {
	Name string
	Args []VNode
}

func (*VPredicateAccess) isVNode() {}

type VPredicateAccessPredicate struct {
	Name string
	Args []VNode
}

func (*VPredicateAccessPredicate) isVNode() {}
