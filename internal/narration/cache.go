package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/stepout/internal/stepout"
)

var errCacheMiss = errors.New("cache miss")

// Cache stores generated messages by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a redis client to Cache.
type RedisCache struct{ client *redis.Client }

func NewRedisCache(client *redis.Client) RedisCache { return RedisCache{client: client} }

func (c RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return v, err
}

func (c RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Cached serves repeat requests for the same kind and level from a cache.
// Cache failures fall through to the wrapped narrator; only successful
// replies are stored.
type Cached struct {
	next   stepout.Narrator
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next stepout.Narrator, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(req stepout.NarrationRequest) string {
	return fmt.Sprintf("stepout:narration:%s:%d", req.Kind, req.Level)
}

func (c *Cached) Narrate(ctx context.Context, req stepout.NarrationRequest) (string, error) {
	key := cacheKey(req)

	text, err := c.cache.Get(ctx, key)
	if err == nil && text != "" {
		return text, nil
	}
	if err != nil && !errors.Is(err, errCacheMiss) {
		c.logger.Warn("narration cache read failed", "key", key, "error", err)
	}

	text, err = c.next.Narrate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, text, c.ttl); err != nil {
		c.logger.Warn("narration cache write failed", "key", key, "error", err)
	}
	return text, nil
}
