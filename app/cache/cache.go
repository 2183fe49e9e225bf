package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Cache stores upstream feed bodies. Get reports a miss as ok == false with
// a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Health(ctx context.Context) map[string]interface{}
	Close() error
}

// FeedKey generates a consistent cache key for a feed URL
func FeedKey(feedURL string) string {
	hash := sha256.Sum256([]byte(feedURL))
	return fmt.Sprintf("feed:%x", hash[:8])
}
