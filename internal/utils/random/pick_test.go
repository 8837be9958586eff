package random

import (
	"crypto/rand"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickUniqueEmptyInput(t *testing.T) {
	got, err := PickUnique(rand.Reader, []string{}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPickUniqueZeroCount(t *testing.T) {
	got, err := PickUnique(rand.Reader, []string{"a", "b", "c"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = PickUnique(rand.Reader, []string{"a", "b", "c"}, -2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPickUniqueCountExceedsPool(t *testing.T) {
	got, err := PickUnique(rand.Reader, []string{"a", "b"}, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestPickUniqueDoesNotMutateInput(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	_, err := PickUnique(rand.Reader, items, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
}

func TestPickUniqueNoDuplicates(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	for trial := 0; trial < 200; trial++ {
		got, err := PickUnique(rand.Reader, items, 7)
		require.NoError(t, err)
		require.Len(t, got, 7)
		seen := make(map[int]struct{}, len(got))
		for _, v := range got {
			_, dup := seen[v]
			require.False(t, dup, "duplicate element %d", v)
			seen[v] = struct{}{}
		}
	}
}

func TestPickUniqueDeterministicWithSeededSource(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}

	first, err := PickUnique(mrand.New(mrand.NewSource(42)), items, 3)
	require.NoError(t, err)
	second, err := PickUnique(mrand.New(mrand.NewSource(42)), items, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPickUniqueUniformity(t *testing.T) {
	const (
		poolSize = 5
		winners  = 2
		trials   = 20000
	)
	items := make([]int, poolSize)
	for i := range items {
		items[i] = i
	}

	counts := make([]int, poolSize)
	src := mrand.New(mrand.NewSource(1))
	for trial := 0; trial < trials; trial++ {
		got, err := PickUnique(src, items, winners)
		require.NoError(t, err)
		for _, v := range got {
			counts[v]++
		}
	}

	// Each element should be selected with frequency k/N.
	expected := float64(trials) * float64(winners) / float64(poolSize)
	for i, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.05,
			"element %d drawn %d times, expected about %.0f", i, c, expected)
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	shuffled := make([]int, len(items))
	copy(shuffled, items)
	require.NoError(t, Shuffle(shuffled))
	assert.ElementsMatch(t, items, shuffled)
}
