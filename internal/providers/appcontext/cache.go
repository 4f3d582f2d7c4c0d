package appcontext

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"campus-concierge/internal/common/errors"
)

const cacheKeyPrefix = "concierge:context:"

// RedisCache stores formatted topic summaries.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(topic string) string {
	return cacheKeyPrefix + topic
}

// Get reports a miss as ("", false, nil).
func (c *RedisCache) Get(ctx context.Context, topic string) (string, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(topic)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewCacheUnavailableError(err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, topic, summary string) error {
	if err := c.client.Set(ctx, cacheKey(topic), summary, c.ttl).Err(); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}
