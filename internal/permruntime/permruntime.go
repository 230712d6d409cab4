// Package permruntime is a reference implementation of the seven permission-
// tracking runtime operations the injector's emitted code calls (spec §5):
// init_fields, add_field_access, add_struct_access, assert_acc,
// assert_disjoint_acc, join, and disjoin. Only its own unit tests exercise
// it; no other package in this repository calls it, and the injector
// itself only ever emits calls by these names, never assuming this
// particular implementation backs them.
//
// Grounded on the teacher's per-instruction effect tagging (ir/effects.go,
// which tags every instruction with the storage slot or memory region it
// touches): here every tracked unit is keyed by (object id, field index)
// instead of a storage slot, but the shape — a small set of tagged units,
// checked and combined across control-flow joins — is the same idea.
package permruntime

import (
	"fmt"
	"sync"
)

// ObjectID is the runtime identity the weaver's instance counter assigns
// to a heap struct allocation (spec glossary "_id").
type ObjectID int64

// Permission is one (object, field) unit of field-access permission.
type Permission struct {
	Object ObjectID
	Field  int
}

// Fields is a permission object: static_fields or dynamic_fields in spec
// terms. The zero value is not usable; build one with InitFields.
type Fields struct {
	set map[Permission]bool
}

// InitFields implements init_fields: a fresh, empty permission object.
func InitFields() *Fields {
	return &Fields{set: map[Permission]bool{}}
}

// AddFieldAccess implements add_field_access: granting permission to one
// field is idempotent — granting it twice changes nothing.
func (f *Fields) AddFieldAccess(obj ObjectID, fieldIndex int) {
	f.set[Permission{Object: obj, Field: fieldIndex}] = true
}

// AddStructAccess implements add_struct_access: granting permission to
// every declared field of a freshly allocated struct at once.
func (f *Fields) AddStructAccess(obj ObjectID, fieldCount int) {
	for i := 0; i < fieldCount; i++ {
		f.AddFieldAccess(obj, i)
	}
}

// Has reports whether f currently grants access to (obj, fieldIndex).
func (f *Fields) Has(obj ObjectID, fieldIndex int) bool {
	return f.set[Permission{Object: obj, Field: fieldIndex}]
}

// PermissionError is raised by AssertAcc/AssertDisjointAcc when the
// runtime permission state cannot back a check the weaver injected —
// the gradual-verification analogue of a failed residual check actually
// firing at run time.
type PermissionError struct {
	Object  ObjectID
	Field   int
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission violation: object %d field %d: %s", e.Object, e.Field, e.Message)
}

// AssertAcc implements assert_acc: fails unless fields currently grants
// access to (obj, fieldIndex).
func AssertAcc(fields *Fields, obj ObjectID, fieldIndex int) error {
	if !fields.Has(obj, fieldIndex) {
		return &PermissionError{Object: obj, Field: fieldIndex, Message: "missing required field access"}
	}
	return nil
}

// AssertDisjointAcc implements assert_disjoint_acc: fails if both a and b
// grant access to the same (obj, fieldIndex) — the runtime check backing a
// FieldSeparation/PredicateSeparation obligation (spec §3).
func AssertDisjointAcc(a, b *Fields, obj ObjectID, fieldIndex int) error {
	if a.Has(obj, fieldIndex) && b.Has(obj, fieldIndex) {
		return &PermissionError{Object: obj, Field: fieldIndex, Message: "overlapping permission required to be disjoint"}
	}
	return nil
}

// Join implements join: the multiset union of a and b, mutated into a, with
// b left empty afterward (spec §4.5's literal contract) — the operation the
// injector emits after an imprecise call returns and before a PrecisePre
// method returns (spec §4.4 step 3).
func Join(a, b *Fields) {
	for p := range b.set {
		a.set[p] = true
	}
	for p := range b.set {
		delete(b.set, p)
	}
}

// Disjoin implements disjoin, the inverse of Join that the injector emits
// before an imprecise call: every permission b currently holds is removed
// from a, so
// the caller's tracked object never double-counts what the callee's object
// now owns. b itself is left unchanged — it is used here only as the set of
// keys to remove, not as a destination.
func Disjoin(a, b *Fields) {
	for p := range b.set {
		delete(a.set, p)
	}
}

// InstanceCounter is the process-lifetime mutable cell the weaver threads
// by pointer into every precise callee (spec §4.4 step 4): each heap
// struct allocation consumes the next id from it.
type InstanceCounter struct {
	mu   sync.Mutex
	next int64
}

// NewInstanceCounter returns a counter starting at 1 (0 is reserved to mean
// "no object").
func NewInstanceCounter() *InstanceCounter {
	return &InstanceCounter{next: 1}
}

// Next returns a fresh, never-before-issued ObjectID.
func (c *InstanceCounter) Next() ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return ObjectID(id)
}
