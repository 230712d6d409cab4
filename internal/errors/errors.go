// Package errors implements the weaver's fatal-error taxonomy (spec §7):
// every fault the weaver can raise is a structured, positioned
// WeaverError; the collector stops at the first fault within a method but
// batches the faults of every failing method, joined with
// go.uber.org/multierr, so a caller sees one fault per failing method at
// once instead of only the first overall.
package errors

import (
	"fmt"

	"weaver/internal/ir"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Code is the closed set of fatal-error categories from spec §7.
type Code string

const (
	// CodeStructuralMismatch: an IR op and verifier statement disagree in
	// kind, or one side is exhausted while the other still has nodes.
	CodeStructuralMismatch Code = "W0001"
	// CodeInvalidExpression: a verifier AST uses a construct the check
	// algebra does not model, a field name violates the struct$field
	// convention, or a specification value contains a disallowed form.
	CodeInvalidExpression Code = "W0002"
	// CodeInvalidSpecification: a value-only expression appears where only
	// permissions are valid, or a permission walk reaches a location it
	// cannot associate with a specification.
	CodeInvalidSpecification Code = "W0003"
	// CodeUnknownVariable: a substitution during call-site permission
	// population cannot resolve a formal parameter to an actual argument.
	CodeUnknownVariable Code = "W0004"
	// CodeUnhandledPosition: a residual check carries a position
	// combination no Phase B rule accepts.
	CodeUnhandledPosition Code = "W0005"
)

// WeaverError is a single fatal weaver fault. It names the method it arose
// in; Position is the offending op's position where the raising site has
// an op at hand, and the zero Position otherwise (and always zero for IR
// built by internal/irtext, which records no op positions). The weaver
// never guesses intent, so there is no "Severity: Warning" variant and no
// recovery path.
type WeaverError struct {
	Code     Code
	Message  string
	Position ir.Position
	Method   string
}

func (e *WeaverError) Error() string {
	return fmt.Sprintf("[%s] %s:%d:%d: %s", e.Code, e.Method, e.Position.Line, e.Position.Column, e.Message)
}

// New builds a WeaverError, wrapped with pkg/errors stack context so a
// caller inspecting the combined multierr still gets a trace to where the
// fault was raised.
func New(code Code, method string, pos ir.Position, format string, args ...interface{}) error {
	we := &WeaverError{Code: code, Message: fmt.Sprintf(format, args...), Position: pos, Method: method}
	return pkgerrors.WithStack(we)
}

// Batch accumulates fatal errors across a single Collect pass and joins
// them into one error to return, so the first fault of every failing method
// is visible at once rather than stopping at the first method that fails.
type Batch struct {
	err error
}

// Add folds err into the batch. A nil err is a no-op.
func (b *Batch) Add(err error) {
	if err == nil {
		return
	}
	b.err = multierr.Append(b.err, err)
}

// Err returns the combined error, or nil if nothing was added.
func (b *Batch) Err() error { return b.err }

// HasErrors reports whether anything was added.
func (b *Batch) HasErrors() bool { return b.err != nil }
