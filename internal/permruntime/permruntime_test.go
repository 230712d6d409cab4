package permruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFieldAccessIsIdempotent(t *testing.T) {
	f := InitFields()
	f.AddFieldAccess(1, 0)
	f.AddFieldAccess(1, 0)
	assert.True(t, f.Has(1, 0))
	assert.Len(t, f.set, 1)
}

func TestAddStructAccessGrantsEveryField(t *testing.T) {
	f := InitFields()
	f.AddStructAccess(1, 3)
	assert.True(t, f.Has(1, 0))
	assert.True(t, f.Has(1, 1))
	assert.True(t, f.Has(1, 2))
	assert.False(t, f.Has(1, 3))
}

func TestAssertAccFailsWithoutPermission(t *testing.T) {
	f := InitFields()
	require.Error(t, AssertAcc(f, 1, 0))
	f.AddFieldAccess(1, 0)
	require.NoError(t, AssertAcc(f, 1, 0))
}

func TestAssertDisjointAccFailsOnOverlap(t *testing.T) {
	a, b := InitFields(), InitFields()
	a.AddFieldAccess(1, 0)
	require.NoError(t, AssertDisjointAcc(a, b, 1, 0))
	b.AddFieldAccess(1, 0)
	require.Error(t, AssertDisjointAcc(a, b, 1, 0))
}

func TestJoinUnionsIntoAAndEmptiesB(t *testing.T) {
	a, b := InitFields(), InitFields()
	a.AddFieldAccess(1, 0)
	b.AddFieldAccess(1, 1)
	Join(a, b)
	assert.True(t, a.Has(1, 0))
	assert.True(t, a.Has(1, 1))
	assert.Len(t, b.set, 0)
}

func TestDisjoinRemovesWhatBHoldsAndLeavesBUntouched(t *testing.T) {
	a, b := InitFields(), InitFields()
	a.AddFieldAccess(1, 0)
	a.AddFieldAccess(1, 1)
	b.AddFieldAccess(1, 0)
	Disjoin(a, b)
	assert.False(t, a.Has(1, 0))
	assert.True(t, a.Has(1, 1))
	assert.True(t, b.Has(1, 0))
}

func TestInstanceCounterNeverRepeats(t *testing.T) {
	c := NewInstanceCounter()
	seen := map[ObjectID]bool{}
	for i := 0; i < 100; i++ {
		id := c.Next()
		require.False(t, seen[id])
		seen[id] = true
	}
}
