package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"JNChoral/logger"

	"github.com/go-redis/redis/v8"
)

// Public listing keys.
const (
	KeyPublishedNews    = "content:news:published"
	KeyPublishedEvents  = "content:events:published"
	KeyPublishedGallery = "content:gallery:published"
	KeyMusic            = "content:music"
	KeyVideos           = "content:videos"

	DefaultContentTTL = 5 * time.Minute
)

// ContentCache holds JSON snapshots of public listings.
// A nil client turns every call into a miss so the site keeps working without Redis.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// GetJSON decodes the cached value of key into dst and reports whether it was found.
func (c *ContentCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// 缓存数据损坏，删除后按未命中处理
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores v under key for the cache TTL.
func (c *ContentCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Invalidate drops keys. Failures are logged, the stale entry expires on its own.
func (c *ContentCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("failed to invalidate content cache",
			logger.Any("keys", keys),
			logger.ErrorField(err))
	}
}
