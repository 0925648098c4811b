package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished translations keyed by CacheKey. It is best effort:
// a miss only costs a provider call.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// CacheKey derives the cache key of a (source text, target language) pair.
func CacheKey(text, target string) string {
	sum := sha256.Sum256([]byte(target + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is a bounded in-process cache. When full it is cleared and
// repopulated from scratch.
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]string
}

// NewMemoryCache creates a cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
	}
}

// Get returns the cached value for key
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores value, clearing the cache first if it is full
func (c *MemoryCache) Set(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		c.entries = make(map[string]string, c.capacity)
	}
	c.entries[key] = value
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache shares translations between processes. Entries expire after ttl
// and the redis maxmemory policy bounds the total size.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCache creates a redis-backed cache
func NewRedisCache(redisClient *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *RedisCache) key(key string) string {
	return "translation:cache:" + key
}

// Get returns the cached value for key
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.redis.Get(ctx, c.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Translation cache read failed: %v", err)
		}
		return "", false
	}
	return v, true
}

// Set stores value with the configured ttl
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if err := c.redis.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		log.Printf("Translation cache write failed: %v", err)
	}
}
