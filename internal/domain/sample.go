package domain

import (
	"math/rand"
	"sort"
)

// Sample draws a uniform random sample of n items using a fixed seed, so the
// same dataset and seed always yield the same sample. Input order is
// preserved in the result. When n is at least len(items), a copy of the full
// slice is returned.
func Sample[T any](items []T, n int, seed int64) []T {
	if n >= len(items) {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(items))[:n]
	sort.Ints(idx)

	out := make([]T, 0, n)
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}
