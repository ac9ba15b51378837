package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCacheSetGet(t *testing.T) {
	mc := NewMemCache(time.Minute)
	defer mc.Close()

	mc.Set("key", "value", time.Minute)

	assert.Equal(t, "value", mc.Get("key"))
	assert.Nil(t, mc.Get("missing"))
}

func TestMemCacheExpiry(t *testing.T) {
	mc := NewMemCache(time.Minute)
	defer mc.Close()

	mc.Set("key", "value", -time.Second)

	assert.Nil(t, mc.Get("key"))
}

func TestMemCacheDelete(t *testing.T) {
	mc := NewMemCache(time.Minute)
	defer mc.Close()

	mc.Set("key", "value", time.Minute)
	mc.Delete("key")

	assert.Nil(t, mc.Get("key"))
}

func TestMemCacheCleanupWorker(t *testing.T) {
	mc := NewMemCache(10 * time.Millisecond)
	defer mc.Close()

	mc.Set("expired", "value", -time.Second)
	mc.Set("fresh", "value", time.Minute)

	// Let the sweep run at least once.
	time.Sleep(50 * time.Millisecond)

	_, exists := mc.memoryCache.Load("expired")
	assert.False(t, exists)
	assert.Equal(t, "value", mc.Get("fresh"))
}
