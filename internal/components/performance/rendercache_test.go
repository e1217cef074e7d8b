package performance

import (
	"fmt"
	"testing"
	"time"
)

func TestRenderCacheCreation(t *testing.T) {
	c := NewRenderCache(0, 0)
	if c.capacity != DefaultCacheSize {
		t.Errorf("Expected default capacity %d, got %d", DefaultCacheSize, c.capacity)
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}

func TestRenderCacheGetPut(t *testing.T) {
	c := NewRenderCache(10, 0)
	key := CacheKey{Key: "pod-a", Width: 80}

	if _, ok := c.Get(key); ok {
		t.Error("Expected miss on empty cache")
	}

	c.Put(key, 0, Rendered{Content: "line1\nline2", Height: 2})

	r, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cached rendering")
	}
	if r.Height != 2 || r.Content != "line1\nline2" {
		t.Errorf("Unexpected rendering %+v", r)
	}

	// Same item at another width is a different rendering.
	if _, ok := c.Get(CacheKey{Key: "pod-a", Width: 40}); ok {
		t.Error("Expected miss for a different width")
	}
	if _, ok := c.Get(CacheKey{Key: "pod-a", Width: 80, Selected: true}); ok {
		t.Error("Expected miss for the selected variant")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 3 || stats.Size != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRenderCacheEvictsOutsideRenderRange(t *testing.T) {
	c := NewRenderCache(4, 0)
	c.SetRenderRange(2, 4)

	for i := 0; i < 4; i++ {
		c.Put(CacheKey{Key: fmt.Sprint(i)}, i, Rendered{Height: 1})
	}
	c.Put(CacheKey{Key: "4"}, 4, Rendered{Height: 1})

	for _, kept := range []string{"2", "3", "4"} {
		if _, ok := c.Get(CacheKey{Key: kept}); !ok {
			t.Errorf("Expected item %s to survive eviction", kept)
		}
	}
	for _, gone := range []string{"0", "1"} {
		if _, ok := c.Get(CacheKey{Key: gone}); ok {
			t.Errorf("Expected item %s to be evicted", gone)
		}
	}
	if c.Stats().Evictions != 2 {
		t.Errorf("Expected 2 evictions, got %d", c.Stats().Evictions)
	}
}

func TestRenderCacheEvictsOldestInsideRange(t *testing.T) {
	c := NewRenderCache(3, 0)
	c.SetRenderRange(0, 100)

	c.Put(CacheKey{Key: "a"}, 0, Rendered{})
	c.Put(CacheKey{Key: "b"}, 1, Rendered{})
	c.Put(CacheKey{Key: "c"}, 2, Rendered{})
	c.Put(CacheKey{Key: "d"}, 3, Rendered{})

	if c.Len() != 3 {
		t.Errorf("Expected cache size 3, got %d", c.Len())
	}
	if _, ok := c.Get(CacheKey{Key: "a"}); ok {
		t.Error("Expected oldest entry to be evicted")
	}
}

func TestRenderCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewRenderCache(2, 0)
	c.Put(CacheKey{Key: "a"}, 0, Rendered{Height: 1})
	c.Put(CacheKey{Key: "b"}, 1, Rendered{Height: 1})
	c.Put(CacheKey{Key: "a"}, 0, Rendered{Height: 3})

	if c.Len() != 2 {
		t.Errorf("Expected cache size 2, got %d", c.Len())
	}
	r, _ := c.Get(CacheKey{Key: "a"})
	if r.Height != 3 {
		t.Errorf("Expected overwritten height 3, got %d", r.Height)
	}
}

func TestRenderCacheInvalidate(t *testing.T) {
	c := NewRenderCache(10, 0)
	c.Put(CacheKey{Key: "a", Width: 80}, 0, Rendered{})
	c.Put(CacheKey{Key: "a", Width: 80, Selected: true}, 0, Rendered{})
	c.Put(CacheKey{Key: "b", Width: 80}, 1, Rendered{})

	c.Invalidate("a")
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry after invalidation, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected cache to be cleared, got %d entries", c.Len())
	}
}

func TestRenderCacheExpiresAfterTTL(t *testing.T) {
	c := NewRenderCache(10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := CacheKey{Key: "event-a", Width: 80}
	c.Put(key, 0, Rendered{Content: "3m ago", Height: 1})

	now = now.Add(59 * time.Second)
	if _, ok := c.Get(key); !ok {
		t.Fatal("Expected rendering to be reused inside the TTL")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get(key); ok {
		t.Error("Expected rendering to expire after the TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired rendering to be dropped, got %d entries", c.Len())
	}

	// a fresh Put restarts the clock
	c.Put(key, 0, Rendered{Content: "4m ago", Height: 1})
	r, ok := c.Get(key)
	if !ok || r.Content != "4m ago" {
		t.Errorf("Expected the new rendering, got %+v", r)
	}
}
