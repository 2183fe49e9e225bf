package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/transpod/app/cache"
	"github.com/lysyi3m/transpod/app/metrics"
)

type Processor struct {
	fetcher     FeedFetcher
	transformer *Transformer
	cache       BodyCache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
}

// NewProcessor wires the fetch/transform pipeline. bodyCache may be nil, in
// which case every request goes upstream.
func NewProcessor(fetcher FeedFetcher, transformer *Transformer, bodyCache BodyCache, cacheTTL time.Duration, m *metrics.Metrics) *Processor {
	if cacheTTL <= 0 {
		bodyCache = nil
	}
	return &Processor{
		fetcher:     fetcher,
		transformer: transformer,
		cache:       bodyCache,
		cacheTTL:    cacheTTL,
		metrics:     m,
	}
}

func (p *Processor) Run(ctx context.Context, req Request) (*Result, error) {
	body, hit, err := p.loadBody(ctx, req)
	if err != nil {
		p.recordError(err)
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	out, stats, err := p.transformer.RunWithStats(body, req.Limit, req.SelfURL)
	if err != nil {
		p.recordError(err)
		return nil, fmt.Errorf("failed to transform feed: %w", err)
	}

	if !hit && p.cache != nil {
		key := cache.FeedKey(req.FeedURL)
		if err := p.cache.Set(ctx, key, body, p.cacheTTL); err != nil {
			slog.Warn("Failed to cache feed body", "url", req.FeedURL, "error", err)
		}
	}

	p.metrics.Items(stats.ItemsKept, stats.ItemsSeen-stats.ItemsKept)

	return &Result{
		XML:      out,
		Stats:    stats,
		FeedType: detectFeedType(out),
		CacheHit: hit,
	}, nil
}

func (p *Processor) loadBody(ctx context.Context, req Request) (string, bool, error) {
	if p.cache != nil {
		body, ok, err := p.cache.Get(ctx, cache.FeedKey(req.FeedURL))
		switch {
		case err != nil:
			slog.Warn("Cache lookup failed, fetching upstream", "url", req.FeedURL, "error", err)
			p.metrics.CacheLookup("error")
		case ok:
			p.metrics.CacheLookup("hit")
			slog.Debug("Cache hit", "url", req.FeedURL)
			return body, true, nil
		default:
			p.metrics.CacheLookup("miss")
		}
	}

	start := time.Now()
	body, err := p.fetcher.Run(ctx, req.FeedURL, req.Timeout)
	p.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return "", false, err
	}

	slog.Debug("Feed fetched", "url", req.FeedURL, "bytes", len(body), "duration", time.Since(start))
	return body, false, nil
}

func (p *Processor) recordError(err error) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		p.metrics.FetchError(string(fetchErr.Kind))
		return
	}
	var transformErr *TransformError
	if errors.As(err, &transformErr) {
		p.metrics.TransformError(string(transformErr.Kind))
	}
}

func detectFeedType(doc string) string {
	switch gofeed.DetectFeedType(strings.NewReader(doc)) {
	case gofeed.FeedTypeRSS:
		return "rss"
	case gofeed.FeedTypeAtom:
		return "atom"
	case gofeed.FeedTypeJSON:
		return "json"
	default:
		return "unknown"
	}
}
