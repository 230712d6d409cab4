package checkexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/residual"
)

func TestFromViperNotEqRewritesToNotEq(t *testing.T) {
	n := &residual.VBinary{Op: "!=", Left: &residual.VLocal{Name: "x"}, Right: &residual.VLit{Kind: residual.VLitInt, Value: 0}}
	got, err := FromViper(n)
	require.NoError(t, err)
	u, ok := got.(*Unary)
	require.True(t, ok)
	assert.Equal(t, "!", u.Op)
	bin, ok := u.Operand.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "==", bin.Op)
}

func TestFromViperDoubleNegationEliminated(t *testing.T) {
	inner := &residual.VUnary{Op: "!", Operand: &residual.VLocal{Name: "p"}}
	n := &residual.VUnary{Op: "!", Operand: inner}
	got, err := FromViper(n)
	require.NoError(t, err)
	v, ok := got.(*Var)
	require.True(t, ok)
	assert.Equal(t, "p", v.Name)
}

func TestFromViperPointerSentinelBecomesDeref(t *testing.T) {
	n := &residual.VFieldAccess{Root: &residual.VLocal{Name: "p"}, FieldName: residual.SentinelIntVal}
	got, err := FromViper(n)
	require.NoError(t, err)
	d, ok := got.(*Deref)
	require.True(t, ok)
	v, ok := d.Operand.(*Var)
	require.True(t, ok)
	assert.Equal(t, "p", v.Name)
}

func TestFromViperStructFieldAccess(t *testing.T) {
	n := &residual.VFieldAccess{Root: &residual.VLocal{Name: "x"}, FieldName: "Node$next"}
	got, err := FromViper(n)
	require.NoError(t, err)
	f, ok := got.(*Field)
	require.True(t, ok)
	assert.Equal(t, "Node", f.Struct)
	assert.Equal(t, "next", f.Field)
}

func TestFromViperResultSentinel(t *testing.T) {
	got, err := FromViper(&residual.VLocal{Name: "$result"})
	require.NoError(t, err)
	_, ok := got.(*Result)
	assert.True(t, ok)
}

func TestFromViperResultTempVar(t *testing.T) {
	got, err := FromViper(&residual.VLocal{Name: "$result$1"})
	require.NoError(t, err)
	rv, ok := got.(*ResultVar)
	require.True(t, ok)
	assert.Equal(t, "$result$1", rv.Name)
}

func TestFromViperOrdinaryVar(t *testing.T) {
	got, err := FromViper(&residual.VLocal{Name: "n"})
	require.NoError(t, err)
	v, ok := got.(*Var)
	require.True(t, ok)
	assert.Equal(t, "n", v.Name)
}

func TestFromViperUnhandledNodeFails(t *testing.T) {
	_, err := FromViper(&residual.VPredicateAccess{Name: "List"})
	assert.Error(t, err)
}

func TestFromViperMalformedFieldNameFails(t *testing.T) {
	n := &residual.VFieldAccess{Root: &residual.VLocal{Name: "x"}, FieldName: "no_dollar_sign"}
	_, err := FromViper(n)
	assert.Error(t, err)
}
