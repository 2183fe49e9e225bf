package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedKey(t *testing.T) {
	url1 := "https://example.com/feed.xml"
	url2 := "https://different.com/feed.xml"

	key1a := FeedKey(url1)
	key1b := FeedKey(url1)
	key2 := FeedKey(url2)

	assert.Equal(t, key1a, key1b, "same URL should generate same key")
	assert.NotEqual(t, key1a, key2, "different URLs should generate different keys")
	assert.True(t, strings.HasPrefix(key1a, "feed:"), "got %s", key1a)
	assert.Len(t, key1a, len("feed:")+16)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	_, ok, err := c.Get(ctx, "feed:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "feed:a", "<rss/>", time.Minute))

	body, ok, err := c.Get(ctx, "feed:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<rss/>", body)

	health := c.Health(ctx)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "memory", health["type"])
	assert.Equal(t, 1, health["key_count"])
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.Set(ctx, "feed:short", "body", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := c.Get(ctx, "feed:short")
	require.NoError(t, err)
	assert.False(t, ok)
}
