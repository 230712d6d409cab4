package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyDropsContradiction(t *testing.T) {
	d := Disjunction{
		{Term{1, true}, Term{1, false}},
		{Term{2, true}},
	}
	got := Simplify(d)
	require.Len(t, got, 1)
	assert.Equal(t, Conjunction{Term{2, true}}, got[0])
}

func TestSimplifyDropsSubsumedConjunction(t *testing.T) {
	// {t1} subsumes {t1, t2}: the longer one is redundant.
	d := Disjunction{
		{Term{1, true}},
		{Term{1, true}, Term{2, true}},
	}
	got := Simplify(d)
	require.Len(t, got, 1)
	assert.Equal(t, Conjunction{Term{1, true}}, got[0])
}

func TestSimplifyIsIdempotent(t *testing.T) {
	d := Disjunction{
		{Term{1, true}, Term{2, false}},
		{Term{1, true}},
		{Term{3, true}, Term{3, false}},
	}
	once := Simplify(d)
	twice := Simplify(once)
	assert.Equal(t, once, twice)
}

func TestSimplifyMonotoneNeverAddsConjunctions(t *testing.T) {
	d := Disjunction{
		{Term{1, true}},
		{Term{2, true}},
	}
	got := Simplify(d)
	assert.LessOrEqual(t, len(got), len(d))
}

func TestCanonicalStringIsDeterministic(t *testing.T) {
	a := Disjunction{
		{Term{2, true}, Term{1, false}},
		{Term{1, true}},
	}
	b := Disjunction{
		{Term{1, true}},
		{Term{1, false}, Term{2, true}},
	}
	assert.Equal(t, a.String(), b.String())
}

func TestAndDistributes(t *testing.T) {
	a := Disjunction{{Term{1, true}}}
	b := Disjunction{{Term{2, true}}, {Term{3, true}}}
	got := And(a, b)
	assert.Equal(t, "(t1 && t2) || (t1 && t3)", got.String())
}

func TestOrUnionsAndSimplifies(t *testing.T) {
	a := Disjunction{{Term{1, true}}}
	b := Disjunction{{Term{1, true}, Term{2, true}}}
	got := Or(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got.String())
}

func TestTrueFalseIdentities(t *testing.T) {
	assert.Equal(t, "true", True().String())
	assert.Equal(t, "false", False().String())
	assert.Equal(t, True(), And(True(), True()))
	assert.Equal(t, False(), And(False(), True()))
}

func TestReferencedTerms(t *testing.T) {
	d := Disjunction{
		{Term{1, true}, Term{2, false}},
		{Term{3, true}},
	}
	refs := ReferencedTerms(d)
	assert.True(t, refs[1])
	assert.True(t, refs[2])
	assert.True(t, refs[3])
	assert.False(t, refs[4])
}
