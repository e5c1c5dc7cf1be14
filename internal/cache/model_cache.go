// Package cache keeps model details in Redis so repeated detail lookups
// from the listing screen skip the database.  Models are immutable once
// written; entries are only ever added or evicted.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/model"
)

// ModelCache is a cache-aside store for model rows.
type ModelCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewModelCache returns a cache over rdb.  Entries expire after ttl.
func NewModelCache(rdb *redis.Client, ttl time.Duration, prefix string, log *zap.Logger) *ModelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ModelCache{rdb: rdb, ttl: ttl, prefix: prefix, log: log}
}

// Key returns the Redis key of modelNo.
func (c *ModelCache) Key(modelNo string) string {
	return c.prefix + ":" + modelNo
}

// Get returns the cached model.  Backend errors count as a miss.
func (c *ModelCache) Get(ctx context.Context, modelNo string) (*model.Model, bool) {
	raw, err := c.rdb.Get(ctx, c.Key(modelNo)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("model cache get failed", zap.String("model_no", modelNo), zap.Error(err))
		}
		return nil, false
	}
	var m model.Model
	if err := json.Unmarshal(raw, &m); err != nil {
		c.log.Warn("model cache entry corrupt", zap.String("model_no", modelNo), zap.Error(err))
		return nil, false
	}
	return &m, true
}

// Set stores m.
func (c *ModelCache) Set(ctx context.Context, m model.Model) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.Key(m.ModelNo), raw, c.ttl).Err(); err != nil {
		c.log.Warn("model cache set failed", zap.String("model_no", m.ModelNo), zap.Error(err))
	}
}

// Evict drops modelNo.
func (c *ModelCache) Evict(ctx context.Context, modelNo string) {
	if err := c.rdb.Del(ctx, c.Key(modelNo)).Err(); err != nil {
		c.log.Warn("model cache evict failed", zap.String("model_no", modelNo), zap.Error(err))
	}
}
