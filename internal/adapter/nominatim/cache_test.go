package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

type countingGeocoder struct {
	calls int
	state string
	err   error
}

func (g *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.Placement, error) {
	g.calls++
	if g.err != nil {
		return domain.Placement{}, g.err
	}
	return domain.Placement{State: g.state}, nil
}

func TestCache_HitsSkipInner(t *testing.T) {
	inner := &countingGeocoder{state: "Oregon"}
	cache := NewCache(inner, 10, nil)

	for i := 0; i < 3; i++ {
		placement, err := cache.ReverseGeocode(context.Background(), 44.1, -120.5)
		require.NoError(t, err)
		assert.Equal(t, "Oregon", placement.State)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCache_NearbyCoordinatesShareEntry(t *testing.T) {
	inner := &countingGeocoder{state: "Oregon"}
	cache := NewCache(inner, 10, nil)

	_, err := cache.ReverseGeocode(context.Background(), 44.10001, -120.50001)
	require.NoError(t, err)
	_, err = cache.ReverseGeocode(context.Background(), 44.10004, -120.50004)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_EvictsOldest(t *testing.T) {
	inner := &countingGeocoder{state: "Utah"}
	cache := NewCache(inner, 2, nil)

	_, _ = cache.ReverseGeocode(context.Background(), 40.5, -111.9)
	_, _ = cache.ReverseGeocode(context.Background(), 41.5, -111.9)
	_, _ = cache.ReverseGeocode(context.Background(), 42.5, -111.9)
	assert.Equal(t, 2, cache.Len())

	// The first key was evicted and must be refetched.
	_, _ = cache.ReverseGeocode(context.Background(), 40.5, -111.9)
	assert.Equal(t, 4, inner.calls)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cache := NewCache(inner, 10, nil)

	_, err := cache.ReverseGeocode(context.Background(), 40.5, -111.9)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	inner.err = nil
	inner.state = "Utah"
	placement, err := cache.ReverseGeocode(context.Background(), 40.5, -111.9)
	require.NoError(t, err)
	assert.Equal(t, "Utah", placement.State)
}
