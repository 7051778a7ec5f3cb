package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMissingKey(t *testing.T) {
	c := New[string](4, time.Minute)

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestSetGet(t *testing.T) {
	c := New[string](4, time.Minute)
	c.Set("org/default", "moid-1")

	got, ok := c.Get("org/default")
	assert.True(t, ok)
	assert.Equal(t, "moid-1", got)
}

func TestExpiry(t *testing.T) {
	c := New[string](4, time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("org/default", "moid-1")

	current = current.Add(2 * time.Minute)

	_, ok := c.Get("org/default")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on read")
}

func TestCapacityBound(t *testing.T) {
	c := New[int](3, time.Minute)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		assert.LessOrEqual(t, c.Len(), 3)
	}

	// The most recent entry always survives.
	got, ok := c.Get("key-9")
	assert.True(t, ok)
	assert.Equal(t, 9, got)
}

func TestEvictsClosestToExpiry(t *testing.T) {
	c := New[int](2, time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	current = current.Add(time.Second)
	c.Set("b", 2)

	current = current.Add(time.Second)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)

	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, got)

	_, ok = c.Get("b")
	assert.True(t, ok)
}
