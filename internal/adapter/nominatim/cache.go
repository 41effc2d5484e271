package nominatim

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
)

// Cache is an LRU decorator around a Geocoder. Fire coordinates cluster
// heavily, so rounding to roughly 11 meters collapses most lookups for a
// large dataset into a few thousand distinct keys.
type Cache struct {
	inner   domain.Geocoder
	size    int
	metrics *observability.Metrics

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key       string
	placement domain.Placement
}

// NewCache wraps inner with an LRU of at most size entries. metrics may be
// nil.
func NewCache(inner domain.Geocoder, size int, metrics *observability.Metrics) *Cache {
	return &Cache{
		inner:   inner,
		size:    size,
		metrics: metrics,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
	}
}

// ReverseGeocode serves from the cache when possible, delegating misses to
// the wrapped geocoder. Failed lookups are not cached.
func (c *Cache) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Placement, error) {
	key := cacheKey(lat, lon)

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		placement := elem.Value.(*cacheEntry).placement
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.GeocodeCacheHits.Inc()
		}
		return placement, nil
	}
	c.mu.Unlock()

	placement, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return domain.Placement{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).placement = placement
		return placement, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, placement: placement})
	if c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return placement, nil
}

// Len reports the number of cached placements.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
