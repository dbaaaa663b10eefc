package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	GenerationKey   = "recommendations:generation"
	DefaultCacheTTL = 5 * time.Minute
)

// Cache is a read-through cache for ranking results. Entries are keyed by
// the current generation, so bumping the generation drops every snapshot at
// once without scanning keys. A nil client turns it into a pass-through.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *Cache {
	l := zap.L().Named("recommendation.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recommendation.cache")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: l}
}

// Invalidate bumps the generation counter.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, GenerationKey).Err()
}

func (c *Cache) key(ctx context.Context, scope string) (string, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("recommendations:%s:%s", gen, scope), nil
}

// fetch returns the cached value for scope or runs load, sharing one load
// between concurrent callers. Redis failures fall back to load.
func fetch[T any](ctx context.Context, c *Cache, scope string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}

	key, err := c.key(ctx, scope)
	if err != nil {
		c.logger.Warn("read recommendation generation failed", zap.Error(err))
		return load(ctx)
	}

	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var v T
		if json.Unmarshal(cached, &v) == nil {
			return v, nil
		}
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(out); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Warn("cache recommendations failed", zap.String("key", key), zap.Error(err))
			}
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
