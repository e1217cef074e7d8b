package template

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultCacheSize bounds the number of cached results
	DefaultCacheSize = 1000
	// DefaultCacheTTL keeps relative times like "5m" from going stale
	DefaultCacheTTL = 30 * time.Second
)

// Cache keeps recent template results keyed by template and data
type Cache struct {
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

type cacheEntry struct {
	result    string
	timestamp time.Time
}

// NewCache creates a cache. A zero ttl keeps entries until evicted.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached result
func (c *Cache) Get(template string, data any) (string, bool) {
	key, ok := makeKey(template, data)
	if !ok {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && c.now().Sub(entry.timestamp) >= c.ttl {
		return "", false
	}
	return entry.result, true
}

// Set stores a result in the cache
func (c *Cache) Set(template string, data any, result string) {
	if c.maxSize == 0 {
		return
	}
	key, ok := makeKey(template, data)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.result = result
		entry.timestamp = c.now()
		return
	}

	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		delete(c.entries, oldest)
		c.order = c.order[1:]
	}

	c.entries[key] = &cacheEntry{
		result:    result,
		timestamp: c.now(),
	}
	c.order = append(c.order, key)
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = make([]string, 0, c.maxSize)
}

// makeKey hashes the template together with the JSON form of data.
// Data that cannot be marshalled is never cached.
func makeKey(template string, data any) (string, bool) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	h := fnv.New64a()
	h.Write([]byte(template))
	h.Write([]byte{0})
	h.Write(dataBytes)
	return strconv.FormatUint(h.Sum64(), 16), true
}
