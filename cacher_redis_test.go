package gormprobe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/redis/go-redis/v9"
)

// stubRedisClient satisfies RedisClient with a map so RedisCacher logic runs
// without a server. The real client is exercised in the integration suite.
type stubRedisClient struct {
	values map[string][]byte
	failOn string
}

func newStubRedisClient() *stubRedisClient {
	return &stubRedisClient{values: make(map[string][]byte)}
}

func (s *stubRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if s.failOn == "get" {
		return redis.NewStringResult("", errors.New("stub get failure"))
	}
	body, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(body), nil)
}

func (s *stubRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if s.failOn == "set" {
		return redis.NewStatusResult("", errors.New("stub set failure"))
	}
	switch v := value.(type) {
	case []byte:
		s.values[key] = append([]byte(nil), v...)
	case string:
		s.values[key] = []byte(v)
	default:
		return redis.NewStatusResult("", errors.New("stub: unsupported value type"))
	}
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := s.values[key]; ok {
			delete(s.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (s *stubRedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func TestRedisCacherRoundTrip(t *testing.T) {
	ctx := context.Background()
	cacher := NewRedisCacher(newStubRedisClient())

	if got, err := cacher.Get(ctx, "missing", &caches.Query[any]{}); err != nil || got != nil {
		t.Fatalf("expected miss to be (nil, nil), got %v err=%v", got, err)
	}

	if err := cacher.Store(ctx, "key", storedQuery(t, "Parent_1", "Parent_2")); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := cacher.Get(ctx, "key", &caches.Query[any]{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RowsAffected != 2 {
		t.Fatalf("expected cached hit with 2 rows, got %+v", got)
	}
}

func TestRedisCacherInvalidateOnlyTouchesPluginKeys(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	cacher := NewRedisCacher(client)

	if err := cacher.Store(ctx, caches.IdentifierPrefix+"q1", storedQuery(t, "Parent_1")); err != nil {
		t.Fatalf("store: %v", err)
	}
	client.values["unrelated"] = []byte("keep")

	if err := cacher.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := client.values[caches.IdentifierPrefix+"q1"]; ok {
		t.Fatalf("expected plugin key deleted")
	}
	if _, ok := client.values["unrelated"]; !ok {
		t.Fatalf("expected unrelated key untouched")
	}
}

func TestRedisCacherPropagatesClientErrors(t *testing.T) {
	ctx := context.Background()

	failing := newStubRedisClient()
	failing.failOn = "get"
	if _, err := NewRedisCacher(failing).Get(ctx, "key", &caches.Query[any]{}); err == nil {
		t.Fatalf("expected get failure to propagate")
	}

	failing = newStubRedisClient()
	failing.failOn = "set"
	if err := NewRedisCacher(failing).Store(ctx, "key", storedQuery(t, "x")); err == nil {
		t.Fatalf("expected set failure to propagate")
	}
}

func TestRedisCacherNilClient(t *testing.T) {
	ctx := context.Background()
	cacher := NewRedisCacher(nil)
	if _, err := cacher.Get(ctx, "key", &caches.Query[any]{}); err == nil {
		t.Fatalf("expected nil client get to error")
	}
	if err := cacher.Store(ctx, "key", storedQuery(t, "x")); err == nil {
		t.Fatalf("expected nil client store to error")
	}
	if err := cacher.Invalidate(ctx); err == nil {
		t.Fatalf("expected nil client invalidate to error")
	}
}

func TestRedisCacherZeroTTLFallsBack(t *testing.T) {
	cacher := NewRedisCacherWithTTL(newStubRedisClient(), 0)
	if cacher.ttl != defaultQueryCacheTTL {
		t.Fatalf("expected default ttl, got %v", cacher.ttl)
	}
}
