package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"
)

// Reporter formats WeaverErrors the way the teacher's compiler formats its
// own: a colored "error[code]: message" header plus a "--> method:line:col"
// location line.
type Reporter struct{}

// Format renders err (typically the result of a Batch) as a human-readable
// report. Non-WeaverError causes are rendered plainly.
func (Reporter) Format(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, one := range multierr.Errors(err) {
		var we *WeaverError
		if !asWeaverError(one, &we) {
			b.WriteString(fmt.Sprintf("%s: %s\n", red("error"), one))
			continue
		}
		b.WriteString(fmt.Sprintf("%s[%s]: %s\n", red("error"), we.Code, bold(we.Message)))
		b.WriteString(fmt.Sprintf("  %s %s:%d:%d\n", dim("-->"), we.Method, we.Position.Line, we.Position.Column))
	}
	return b.String()
}

// asWeaverError unwraps err (which may be wrapped by pkg/errors.WithStack)
// looking for a *WeaverError cause.
func asWeaverError(err error, out **WeaverError) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if we, ok := err.(*WeaverError); ok {
			*out = we
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
