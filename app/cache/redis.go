package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

type feedEntry struct {
	Content  string `json:"content"`
	CachedAt int64  `json:"cached_at"`
}

// NewRedisCache connects to addr and pings it before returning.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var entry feedEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// Unreadable entries are dropped and reported as a miss
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			slog.Warn("Failed to delete corrupt cache entry", "key", key, "error", delErr)
		}
		return "", false, nil
	}

	return entry.Content, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	data, err := json.Marshal(feedEntry{Content: value, CachedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Health returns cache health information
func (c *RedisCache) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if dbSize, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = dbSize
	}

	return health
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
