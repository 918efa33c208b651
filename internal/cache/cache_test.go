package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestCacheTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := New[string](30*time.Second, clock.Now)
	key := Key{ChainID: 1, EntityID: "42"}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, "cached")

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "cached", got)

	clock.Advance(29 * time.Second)
	_, ok = c.Get(key)
	assert.True(t, ok, "within TTL must serve the cached value")

	clock.Advance(1 * time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok, "age equal to TTL must force a fresh read")
}

func TestCacheInvalidate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := New[int](30*time.Second, clock.Now)
	key := Key{ChainID: 8453, EntityID: "7"}
	other := Key{ChainID: 8453, EntityID: "8"}

	c.Set(key, 1)
	c.Set(other, 2)
	c.Invalidate(key)

	_, ok := c.Get(key)
	assert.False(t, ok)

	got, ok := c.Get(other)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}
