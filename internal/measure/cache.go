package measure

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
)

const (
	DefaultTTL             = 2 * time.Second
	DefaultCleanupInterval = 30 * time.Second
)

// Cache remembers the last good measurement per id and serves it while the
// wrapped Measurer fails, for at most ttl. A transient measurement failure
// in the middle of a drag then keeps the zone at its last known rectangle
// instead of dropping it.
type Cache struct {
	inner Measurer
	cache *gocache.Cache
	ttl   time.Duration

	fresh atomic.Uint64
	stale atomic.Uint64
	miss  atomic.Uint64
}

// NewCache wraps inner. A non-positive ttl selects DefaultTTL.
func NewCache(inner Measurer, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		inner: inner,
		cache: gocache.New(ttl, DefaultCleanupInterval),
		ttl:   ttl,
	}
}

// Measure implements Measurer.
func (c *Cache) Measure(id string) (geometry.Rect, bool) {
	if rect, ok := c.inner.Measure(id); ok {
		c.cache.Set(id, rect, c.ttl)
		c.fresh.Add(1)
		return rect, true
	}

	value, found := c.cache.Get(id)
	if !found {
		c.miss.Add(1)
		return geometry.Rect{}, false
	}

	rect, ok := value.(geometry.Rect)
	if !ok {
		log.Error(log.CatMeasure, "wrong type in measurement cache", "id", id)
		c.cache.Delete(id)
		c.miss.Add(1)
		return geometry.Rect{}, false
	}

	c.stale.Add(1)
	log.Debug(log.CatMeasure, "serving cached measurement", "id", id)
	return rect, true
}

// Forget drops the cached rectangle for id, e.g. when its element unmounts.
func (c *Cache) Forget(id string) {
	c.cache.Delete(id)
}

// Flush drops every cached rectangle.
func (c *Cache) Flush() {
	c.cache.Flush()
}

// CacheStats counts how Measure calls were answered.
type CacheStats struct {
	Fresh uint64
	Stale uint64
	Miss  uint64
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Fresh: c.fresh.Load(),
		Stale: c.stale.Load(),
		Miss:  c.miss.Load(),
	}
}
