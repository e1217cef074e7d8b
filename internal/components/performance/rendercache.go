package performance

import (
	"sync"
	"time"
)

const (
	// DefaultCacheSize is the number of rendered items kept by default
	DefaultCacheSize = 1000
	// DefaultCacheTTL bounds how long a rendering is reused, so relative
	// times such as "3m" are refreshed
	DefaultCacheTTL = 30 * time.Second
)

// CacheKey identifies one rendering of an item
type CacheKey struct {
	Key      string // item identity
	Width    int    // render width
	Selected bool
}

// Rendered is a cached rendering with its measured height
type Rendered struct {
	Content string
	Height  int
}

type cachedItem struct {
	Rendered
	index  int
	seq    uint64
	stored time.Time
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// RenderCache keeps rendered items so scrolling back over them does not
// render them again. When full, items outside the current render range are
// evicted first. Renderings older than the TTL count as misses.
type RenderCache struct {
	entries     map[CacheKey]*cachedItem
	capacity    int
	ttl         time.Duration
	now         func() time.Time
	renderStart int
	renderEnd   int
	seq         uint64
	stats       CacheStats
	mu          sync.RWMutex
}

// NewRenderCache creates a cache holding up to capacity renderings for at
// most ttl each. A zero ttl keeps renderings until they are evicted.
func NewRenderCache(capacity int, ttl time.Duration) *RenderCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RenderCache{
		entries:  make(map[CacheKey]*cachedItem),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetRenderRange records the window currently being rendered
func (c *RenderCache) SetRenderRange(start, end int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderStart = start
	c.renderEnd = end
}

// Get returns the cached rendering for key
func (c *RenderCache) Get(key CacheKey) (Rendered, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.ttl > 0 && c.now().Sub(entry.stored) >= c.ttl {
		delete(c.entries, key)
		c.stats.Evictions++
		ok = false
	}
	if !ok {
		c.stats.Misses++
		return Rendered{}, false
	}
	c.stats.Hits++
	return entry.Rendered, true
}

// Put stores the rendering of the item at index
func (c *RenderCache) Put(key CacheKey, index int, r Rendered) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.seq++
	c.entries[key] = &cachedItem{Rendered: r, index: index, seq: c.seq, stored: c.now()}
}

// evictLocked drops everything outside the render range, or the oldest
// entry when the whole cache is inside it
func (c *RenderCache) evictLocked() {
	for k, e := range c.entries {
		if e.index < c.renderStart || e.index >= c.renderEnd {
			delete(c.entries, k)
			c.stats.Evictions++
		}
	}
	if len(c.entries) < c.capacity {
		return
	}

	var oldestKey CacheKey
	var oldestSeq uint64
	first := true
	for k, e := range c.entries {
		if first || e.seq < oldestSeq {
			oldestKey, oldestSeq, first = k, e.seq, false
		}
	}
	delete(c.entries, oldestKey)
	c.stats.Evictions++
}

// Invalidate removes every rendering of the item with the given identity
func (c *RenderCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.Key == key {
			delete(c.entries, k)
		}
	}
}

// Clear empties the cache
func (c *RenderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]*cachedItem)
}

// Len returns the number of cached renderings
func (c *RenderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters
func (c *RenderCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
