package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &MemoryCache{
		cache: gocache.New(defaultTTL, defaultTTL*2),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		return "", false, nil
	}
	body, ok := value.(string)
	if !ok {
		c.cache.Delete(key)
		return "", false, nil
	}
	return body, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Health(_ context.Context) map[string]interface{} {
	return map[string]interface{}{
		"status":    "healthy",
		"type":      "memory",
		"key_count": c.cache.ItemCount(),
	}
}

func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}
