package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2, 0)

	_, ok := c.Get("t", map[string]int{"a": 1})
	assert.False(t, ok)

	c.Set("t", map[string]int{"a": 1}, "one")
	got, ok := c.Get("t", map[string]int{"a": 1})
	assert.True(t, ok)
	assert.Equal(t, "one", got)

	// same data under a different template is a different key
	_, ok = c.Get("u", map[string]int{"a": 1})
	assert.False(t, ok)
}

func TestCache_EvictsOldest(t *testing.T) {
	c := NewCache(2, 0)
	c.Set("t", 1, "one")
	c.Set("t", 2, "two")
	c.Set("t", 1, "uno")
	c.Set("t", 3, "three")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("t", 1)
	assert.False(t, ok)
	got, _ := c.Get("t", 3)
	assert.Equal(t, "three", got)
}

func TestCache_TTL(t *testing.T) {
	c := NewCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("t", 1, "one")
	_, ok := c.Get("t", 1)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("t", 1)
	assert.False(t, ok)
}

func TestCache_UnmarshalableData(t *testing.T) {
	c := NewCache(10, 0)
	c.Set("t", func() {}, "x")
	assert.Equal(t, 0, c.Len())

	c.Set("t", 1, "x")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
