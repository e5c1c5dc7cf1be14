package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/displaydb/internal/model"
)

func unreachableCache(t *testing.T) *ModelCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewModelCache(rdb, 0, "displaydb:model", zaptest.NewLogger(t))
}

func liveCache(t *testing.T, ttl time.Duration) (*ModelCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewModelCache(rdb, ttl, "displaydb:model", zaptest.NewLogger(t)), mr
}

func TestModelCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := liveCache(t, time.Minute)
	want := model.Model{ModelNo: "M1", Width: 10, Height: 20.5, Weight: 5, Depth: 3, ScreenSize: 15}

	_, ok := c.Get(ctx, "M1")
	assert.False(t, ok)

	c.Set(ctx, want)
	assert.True(t, mr.Exists("displaydb:model:M1"))
	assert.Equal(t, time.Minute, mr.TTL("displaydb:model:M1"))

	got, ok := c.Get(ctx, "M1")
	require.True(t, ok)
	assert.Equal(t, want, *got)

	c.Evict(ctx, "M1")
	assert.False(t, mr.Exists("displaydb:model:M1"))
	_, ok = c.Get(ctx, "M1")
	assert.False(t, ok)
}

func TestModelCacheEntryExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := liveCache(t, time.Minute)

	c.Set(ctx, model.Model{ModelNo: "M1", Width: 10})
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "M1")
	assert.False(t, ok)
}

func TestModelCacheCorruptEntryIsAMiss(t *testing.T) {
	c, mr := liveCache(t, 0)
	require.NoError(t, mr.Set("displaydb:model:M1", "{not json"))

	m, ok := c.Get(context.Background(), "M1")
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestModelCacheKey(t *testing.T) {
	c := unreachableCache(t)
	assert.Equal(t, "displaydb:model:M1", c.Key("M1"))
	assert.Equal(t, 5*time.Minute, c.ttl)
}

func TestModelCacheBackendDownIsAMiss(t *testing.T) {
	ctx := context.Background()
	c := unreachableCache(t)

	c.Set(ctx, model.Model{ModelNo: "M1", Width: 10})
	m, ok := c.Get(ctx, "M1")
	assert.False(t, ok)
	assert.Nil(t, m)
	c.Evict(ctx, "M1")
}
