package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/transpod/app/feed"
	"github.com/lysyi3m/transpod/app/metrics"
)

const (
	errFeedRequired  = "Feed URL parameter is required"
	errInvalidLimit  = "Limit must be a positive number"
	errProcessFailed = "Failed to process podcast feed"
	errFeedNotFound  = "Feed not found"
)

// NewHandler builds the HTTP handlers. configCache and cache may be nil.
func NewHandler(processor ProcessorInterface, configCache *feed.ConfigCache, cache HealthReporter, m *metrics.Metrics, cfg HandlerConfig) *Handler {
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 10
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Handler{
		processor:   processor,
		configCache: configCache,
		cache:       cache,
		metrics:     m,
		cfg:         cfg,
	}
}

// GetRoot serves the landing page, or the transformed feed when a feed
// parameter is present.
func (h *Handler) GetRoot(c *gin.Context) {
	feedURL := c.Query("feed")
	if feedURL == "" {
		page, err := renderLanding(h.cfg.DefaultLimit, h.cfg.Version)
		if err != nil {
			slog.Error("Landing page render error", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	h.handleFeedQuery(c, feedURL)
}

func (h *Handler) GetFeed(c *gin.Context) {
	feedURL := c.Query("feed")
	if feedURL == "" {
		h.metrics.Request("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": errFeedRequired})
		return
	}

	h.handleFeedQuery(c, feedURL)
}

func (h *Handler) GetPreset(c *gin.Context) {
	name := c.Param("name")

	if h.configCache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errFeedNotFound})
		return
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil || !feedConfig.Settings.Enabled {
		slog.Debug("Preset feed not available", "feed", name, "error", err)
		h.metrics.Request("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": errFeedNotFound})
		return
	}

	limit, ok := parseLimit(c.Query("limit"), feedConfig.Settings.Limit)
	if !ok {
		h.metrics.Request("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidLimit})
		return
	}

	c.Header("X-Feed-Name", name)
	h.serveFeed(c, feedConfig.URL, limit, feedConfig.FetchTimeout())
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.cfg.Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if h.configCache != nil {
		health["loaded_configurations"] = h.configCache.GetConfigCount()
	}

	if h.cache != nil {
		cacheHealth := h.cache.Health(c.Request.Context())
		health["cache"] = cacheHealth
		if cacheHealth["status"] != "healthy" {
			health["status"] = "degraded"
		}
	} else {
		health["cache"] = map[string]interface{}{"status": "disabled"}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	names := h.configCache.GetConfigNames()

	feeds := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		feedConfig, err := h.configCache.GetConfig(name)
		if err != nil {
			continue
		}
		feeds = append(feeds, map[string]interface{}{
			"name":    feedConfig.Name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
			"limit":   feedConfig.Settings.Limit,
			"timeout": feedConfig.FetchTimeout().String(),
			"path":    "/feeds/" + feedConfig.Name,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	slog.Info("Configuration reloaded", "feed", name, "enabled", feedConfig.Settings.Enabled, "limit", feedConfig.Settings.Limit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded successfully",
		"feed": gin.H{
			"name":    name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
			"limit":   feedConfig.Settings.Limit,
		},
	})
}

func (h *Handler) handleFeedQuery(c *gin.Context, feedURL string) {
	limit, ok := parseLimit(c.Query("limit"), h.cfg.DefaultLimit)
	if !ok {
		h.metrics.Request("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidLimit})
		return
	}

	h.serveFeed(c, feedURL, limit, 0)
}

func (h *Handler) serveFeed(c *gin.Context, feedURL string, limit int, timeout time.Duration) {
	start := time.Now()

	result, err := h.processor.Run(c.Request.Context(), feed.Request{
		FeedURL: feedURL,
		Limit:   limit,
		SelfURL: h.selfURL(c),
		Timeout: timeout,
	})
	if err != nil {
		outcome := "error"
		var fetchErr *feed.FetchError
		var transformErr *feed.TransformError
		switch {
		case errors.As(err, &fetchErr):
			outcome = "fetch_error"
			slog.Error("Error processing feed", "url", feedURL, "kind", fetchErr.Kind, "status", fetchErr.StatusCode, "error", err, "request_id", c.GetString(requestIDKey))
		case errors.As(err, &transformErr):
			outcome = "transform_error"
			slog.Error("Error processing feed", "url", feedURL, "kind", transformErr.Kind, "error", err, "request_id", c.GetString(requestIDKey))
		default:
			slog.Error("Error processing feed", "url", feedURL, "error", err, "request_id", c.GetString(requestIDKey))
		}
		h.metrics.Request(outcome)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errProcessFailed})
		return
	}

	h.metrics.Request("ok")
	slog.Debug("Feed served",
		"url", feedURL,
		"limit", limit,
		"kept", result.Stats.ItemsKept,
		"total", result.Stats.ItemsSeen,
		"cache_hit", result.CacheHit,
		"duration", time.Since(start))

	c.Header("X-Feed-Items", strconv.Itoa(result.Stats.ItemsKept))
	c.Header("X-Feed-Items-Total", strconv.Itoa(result.Stats.ItemsSeen))
	c.Header("X-Feed-Type", result.FeedType)
	if result.CacheHit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(result.XML))
}

// selfURL is the public URL of the current request, used to rewrite the
// feed's self link.
func (h *Handler) selfURL(c *gin.Context) string {
	base := h.cfg.BaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + c.Request.URL.RequestURI()
}

// parseLimit returns fallback for an empty value and rejects anything that
// is not an integer of at least 1.
func parseLimit(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
