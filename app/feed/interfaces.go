package feed

import (
	"context"
	"time"
)

// FeedFetcher retrieves a raw upstream feed body. Implemented by *Fetcher.
type FeedFetcher interface {
	Run(ctx context.Context, feedURL string, timeout time.Duration) (string, error)
}

// BodyCache stores upstream bodies by key. Implemented by the app/cache
// backends.
type BodyCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
