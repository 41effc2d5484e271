package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		first := Sample(items, 10, 42)
		second := Sample(items, 10, 42)

		assert.Equal(t, first, second)
		assert.Len(t, first, 10)
	})

	t.Run("different seeds differ", func(t *testing.T) {
		a := Sample(items, 10, 42)
		b := Sample(items, 10, 43)

		assert.NotEqual(t, a, b)
	})

	t.Run("subset of input in input order", func(t *testing.T) {
		sample := Sample(items, 25, 7)

		require.Len(t, sample, 25)
		seen := map[int]bool{}
		prev := -1
		for _, v := range sample {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, len(items))
			assert.False(t, seen[v], "duplicate item in sample")
			assert.Greater(t, v, prev, "input order not preserved")
			seen[v] = true
			prev = v
		}
	})

	t.Run("n at least len returns copy of all", func(t *testing.T) {
		sample := Sample(items, 100, 42)
		assert.Equal(t, items, sample)

		sample = Sample(items, 1000, 42)
		assert.Equal(t, items, sample)

		// Returned slice is a copy.
		sample[0] = -99
		assert.Equal(t, 0, items[0])
	})

	t.Run("non-positive n", func(t *testing.T) {
		assert.Nil(t, Sample(items, 0, 42))
		assert.Nil(t, Sample(items, -5, 42))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Sample([]int{}, 10, 42))
	})
}
