package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/residual"
)

func TestCheckFromViperFieldAccessPredicate(t *testing.T) {
	n := &residual.VFieldAccessPredicate{Access: &residual.VFieldAccess{
		Root: &residual.VLocal{Name: "x"}, FieldName: "Node$f",
	}}
	got, err := FromViper(n)
	require.NoError(t, err)
	fa, ok := got.(*FieldAccessibility)
	require.True(t, ok)
	assert.Equal(t, "Node", fa.Field.Struct)
	assert.Equal(t, "f", fa.Field.Field)
}

func TestCheckFromViperPredicateAccess(t *testing.T) {
	n := &residual.VPredicateAccess{Name: "List", Args: []residual.VNode{&residual.VLocal{Name: "x"}}}
	got, err := FromViper(n)
	require.NoError(t, err)
	pa, ok := got.(*PredicateAccessibility)
	require.True(t, ok)
	assert.Equal(t, "List", pa.Predicate.Name)
	require.Len(t, pa.Predicate.Args, 1)
}

func TestCheckFromViperPredicateAccessPredicate(t *testing.T) {
	n := &residual.VPredicateAccessPredicate{Name: "Tree"}
	got, err := FromViper(n)
	require.NoError(t, err)
	_, ok := got.(*PredicateAccessibility)
	assert.True(t, ok)
}

func TestCheckFromViperPlainBooleanBecomesExpr(t *testing.T) {
	n := &residual.VBinary{Op: "==", Left: &residual.VLocal{Name: "x"}, Right: &residual.VLit{Kind: residual.VLitInt, Value: 0}}
	got, err := FromViper(n)
	require.NoError(t, err)
	_, ok := got.(*Expr)
	assert.True(t, ok)
}
