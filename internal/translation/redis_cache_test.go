package translation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to localhost DB 15 and skips when redis is not running.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisCache_GetSet(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()
	key := uuid.New().String()
	t.Cleanup(func() { rdb.Del(ctx, c.key(key)) })

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Set(ctx, key, "olá")
	got, ok := c.Get(ctx, key)
	if !ok || got != "olá" {
		t.Fatalf("Get = %q, %v; want olá, true", got, ok)
	}
}

func TestRedisCache_TTL(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()
	key := uuid.New().String()
	t.Cleanup(func() { rdb.Del(ctx, c.key(key)) })

	c.Set(ctx, key, "hola")
	ttl, err := rdb.TTL(ctx, c.key(key)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, want (0, 1m]", ttl)
	}
}

func TestRedisCache_Expires(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewRedisCache(rdb, 100*time.Millisecond)
	ctx := context.Background()
	key := uuid.New().String()
	t.Cleanup(func() { rdb.Del(ctx, c.key(key)) })

	c.Set(ctx, key, "hola")
	time.Sleep(300 * time.Millisecond)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("entry should have expired")
	}
}
