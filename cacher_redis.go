package gormprobe

import (
	"context"
	"errors"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/redis/go-redis/v9"
)

// RedisClient captures the subset of redis.Client used by RedisCacher.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisCacher is a query-result cache backend shared across processes.
type RedisCacher struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisCacher builds a cacher with the default TTL.
func NewRedisCacher(client RedisClient) *RedisCacher {
	return NewRedisCacherWithTTL(client, defaultQueryCacheTTL)
}

// NewRedisCacherWithTTL lets callers override the entry TTL.
func NewRedisCacherWithTTL(client RedisClient, ttl time.Duration) *RedisCacher {
	if ttl <= 0 {
		ttl = defaultQueryCacheTTL
	}
	return &RedisCacher{client: client, ttl: ttl}
}

// Get implements caches.Cacher. A miss is (nil, nil).
func (c *RedisCacher) Get(ctx context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	if c.client == nil {
		return nil, errors.New("redis cacher client unavailable")
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if err := q.Unmarshal(body); err != nil {
		return nil, err
	}
	return q, nil
}

// Store implements caches.Cacher.
func (c *RedisCacher) Store(ctx context.Context, key string, val *caches.Query[any]) error {
	if c.client == nil {
		return errors.New("redis cacher client unavailable")
	}
	body, err := val.Marshal()
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, body, c.ttl).Err()
}

// Invalidate implements caches.Cacher: it scans the plugin's key prefix and
// deletes what it finds.
func (c *RedisCacher) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return errors.New("redis cacher client unavailable")
	}
	pattern := caches.IdentifierPrefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
