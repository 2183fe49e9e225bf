package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/transpod/app/cache"
	"github.com/lysyi3m/transpod/app/metrics"
)

type stubFetcher struct {
	mu       sync.Mutex
	body     string
	err      error
	calls    int
	timeouts []time.Duration
}

func (f *stubFetcher) Run(_ context.Context, _ string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.timeouts = append(f.timeouts, timeout)
	return f.body, f.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache down")
}

func seriesCount(t *testing.T, m *metrics.Metrics, name string) int {
	t.Helper()
	count, err := testutil.GatherAndCount(m.Registry(), name)
	require.NoError(t, err)
	return count
}

func TestProcessorRun(t *testing.T) {
	fetcher := &stubFetcher{body: loadSampleFeed(t)}
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), nil, 0, nil)

	res, err := p.Run(context.Background(), Request{
		FeedURL: "https://feeds.example.com/original-feed.xml",
		Limit:   2,
		SelfURL: "http://localhost:8080/feed?feed=x&limit=2",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(res.XML, "<item>"))
	assert.Equal(t, Stats{ItemsSeen: 5, ItemsKept: 2, SelfLinkRewritten: true}, res.Stats)
	assert.Equal(t, "rss", res.FeedType)
	assert.False(t, res.CacheHit)
	assert.Equal(t, []time.Duration{5 * time.Second}, fetcher.timeouts)
}

func TestProcessorCachesUpstreamBody(t *testing.T) {
	fetcher := &stubFetcher{body: loadSampleFeed(t)}
	m := metrics.New()
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), cache.NewMemoryCache(time.Minute), time.Minute, m)
	ctx := context.Background()

	first, err := p.Run(ctx, Request{FeedURL: "https://example.com/feed.xml", Limit: 1})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, strings.Count(first.XML, "<item>"))

	second, err := p.Run(ctx, Request{FeedURL: "https://example.com/feed.xml", Limit: 4})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 4, strings.Count(second.XML, "<item>"))

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 2, seriesCount(t, m, "transpod_cache_lookups_total"), "one miss and one hit series")
}

func TestProcessorDoesNotCacheUntransformableBody(t *testing.T) {
	fetcher := &stubFetcher{body: "<rss><channel>"}
	bodyCache := cache.NewMemoryCache(time.Minute)
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), bodyCache, time.Minute, nil)

	_, err := p.Run(context.Background(), Request{FeedURL: "https://example.com/broken.xml", Limit: 1})
	requireTransformError(t, err, TransformMalformed)

	_, ok, _ := bodyCache.Get(context.Background(), cache.FeedKey("https://example.com/broken.xml"))
	assert.False(t, ok)
}

func TestProcessorCacheErrorsAreMisses(t *testing.T) {
	fetcher := &stubFetcher{body: loadSampleFeed(t)}
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), failingCache{}, time.Minute, nil)

	res, err := p.Run(context.Background(), Request{FeedURL: "https://example.com/feed.xml", Limit: 1})
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, fetcher.calls)
}

func TestProcessorZeroTTLDisablesCache(t *testing.T) {
	fetcher := &stubFetcher{body: loadSampleFeed(t)}
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), cache.NewMemoryCache(time.Minute), 0, nil)

	for i := 0; i < 2; i++ {
		_, err := p.Run(context.Background(), Request{FeedURL: "https://example.com/feed.xml", Limit: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fetcher.calls)
}

func TestProcessorFetchErrorIsWrapped(t *testing.T) {
	fetcher := &stubFetcher{err: &FetchError{Kind: FetchHTTPStatus, StatusCode: 404, Status: "404 Not Found"}}
	m := metrics.New()
	p := NewProcessor(fetcher, NewTransformer(DefaultOptions()), nil, 0, m)

	_, err := p.Run(context.Background(), Request{FeedURL: "https://example.com/missing.xml", Limit: 1})

	fetchErr := requireFetchError(t, err, FetchHTTPStatus)
	assert.Equal(t, 404, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "failed to fetch feed")
	assert.Equal(t, 1, seriesCount(t, m, "transpod_fetch_errors_total"))
}

func TestDetectFeedType(t *testing.T) {
	assert.Equal(t, "rss", detectFeedType(`<rss version="2.0"><channel></channel></rss>`))
	assert.Equal(t, "atom", detectFeedType(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	assert.Equal(t, "unknown", detectFeedType(`<html></html>`))
}
