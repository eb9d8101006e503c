package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "site:domain:"

// RedisCache shares resolutions across instances. Any redis failure is a
// cache miss, never a request failure.
type RedisCache struct {
	client *redis.Client
	lg     *zap.SugaredLogger
}

func NewRedisCache(client *redis.Client, lg *zap.SugaredLogger) *RedisCache {
	return &RedisCache{client: client, lg: lg}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*ResolvedSite, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.lg.Debugw("site cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var resolved ResolvedSite
	if err := json.Unmarshal(data, &resolved); err != nil {
		c.lg.Debugw("site cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &resolved, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value *ResolvedSite, ttl time.Duration) {
	if value == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		c.lg.Warnw("site cache set failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Clear(ctx context.Context) {
	keys, err := c.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		c.lg.Warnw("site cache clear failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.lg.Warnw("site cache clear failed", "error", err)
	}
}
