package gormprobe

import (
	"context"
	"time"

	"github.com/go-gorm/caches/v4"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// MemoryCacher is an in-process query-result cache backend. Entries expire
// after the configured TTL; Invalidate drops everything at once.
type MemoryCacher struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCacher builds a cacher with the default TTL.
func NewMemoryCacher() *MemoryCacher {
	return NewMemoryCacherWithTTL(defaultQueryCacheTTL)
}

// NewMemoryCacherWithTTL lets callers override the entry TTL.
func NewMemoryCacherWithTTL(ttl time.Duration) *MemoryCacher {
	if ttl <= 0 {
		ttl = defaultQueryCacheTTL
	}
	return &MemoryCacher{
		cache: gocache.New(ttl, defaultCacheCleanupInterval),
		ttl:   ttl,
	}
}

// Get implements caches.Cacher. A miss is (nil, nil).
func (c *MemoryCacher) Get(_ context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	item, ok := c.cache.Get(key)
	if !ok {
		return nil, nil
	}
	body, ok := item.([]byte)
	if !ok {
		return nil, nil
	}
	if err := q.Unmarshal(body); err != nil {
		return nil, err
	}
	return q, nil
}

// Store implements caches.Cacher.
func (c *MemoryCacher) Store(_ context.Context, key string, val *caches.Query[any]) error {
	body, err := val.Marshal()
	if err != nil {
		return err
	}
	c.cache.Set(key, body, c.ttl)
	return nil
}

// Invalidate implements caches.Cacher.
func (c *MemoryCacher) Invalidate(context.Context) error {
	c.cache.Flush()
	return nil
}

// WithQueryCache installs the query-result cache plugin on db. Reads issued
// through db afterwards are served from cacher when the identical statement
// was seen before. Writes do not invalidate; callers invalidate explicitly.
func WithQueryCache(db *gorm.DB, cacher caches.Cacher) error {
	return db.Use(&caches.Caches{Conf: &caches.Config{Cacher: cacher}})
}
