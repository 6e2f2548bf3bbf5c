package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Parallel()

	cat, err := CatalogFor(EditionIFA)
	require.NoError(t, err)

	s, err := Setup(cat, []string{"Ann", "Bob", "Cid"}, DefaultRules(), NewSource(3))
	require.NoError(t, err)

	assert.Len(t, s.Combinations, 3)
	assert.ElementsMatch(t, []int{0, 1, 2}, s.PlayOrder)
	assert.Equal(t, PhaseInProgress, s.Phase)
	assert.Equal(t, []string{"Auction start!"}, s.EventLog())
	assert.False(t, s.IsComplete())
	assert.Equal(t, OrderCombinations(s.Combinations, cat), s.Combinations)
	assert.Equal(t, "Bob", s.SeatName(1))
	assert.Equal(t, "Seat 9", s.SeatName(9))
}

func TestSetup_Reproducible(t *testing.T) {
	t.Parallel()

	cat, err := CatalogFor(EditionBase)
	require.NoError(t, err)
	names := []string{"a", "b", "c", "d"}

	a, err := Setup(cat, names, DefaultRules(), NewSource(77))
	require.NoError(t, err)
	b, err := Setup(cat, names, DefaultRules(), NewSource(77))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSetup_TooManySeats(t *testing.T) {
	t.Parallel()

	cat, err := CatalogFor(EditionBase)
	require.NoError(t, err)

	s, err := Setup(cat, []string{"a", "b", "c", "d", "e", "f"}, DefaultRules(), NewSource(1))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Nil(t, s)
}

func TestCatalogFor(t *testing.T) {
	t.Parallel()

	c, err := CatalogFor(EditionIFA)
	require.NoError(t, err)
	assert.Len(t, c.Factions, 7)
	assert.Equal(t, 0, c.MatIndex(Industrial))
	assert.Equal(t, 2, c.FactionIndex(Togawa))
	assert.Equal(t, -1, c.FactionIndex("Fenris"))

	// 返回副本，修改不影响内置目录
	c.Factions[0] = "Fenris"
	again, err := CatalogFor(EditionIFA)
	require.NoError(t, err)
	assert.Equal(t, Nordic, again.Factions[0])

	_, err = CatalogFor("deluxe")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestIsComplete(t *testing.T) {
	t.Parallel()

	assert.True(t, IsComplete(nil))
	assert.False(t, IsComplete([]Combination{held(Nordic, Militant, 0, 1), newCombination(Crimea, Engineering)}))
	assert.True(t, IsComplete([]Combination{held(Nordic, Militant, 0, 1), held(Crimea, Engineering, 1, 0)}))
}

func TestEventLog_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := newTestState(t, []int{0}, newCombination(Nordic, Militant))
	log := s.EventLog()
	log[0] = "tampered"
	assert.Equal(t, "Auction start!", s.EventLog()[0])
}
