package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/transpod/app/api"
	"github.com/lysyi3m/transpod/app/cache"
	"github.com/lysyi3m/transpod/app/cfg"
	"github.com/lysyi3m/transpod/app/feed"
	"github.com/lysyi3m/transpod/app/metrics"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Transpod", "version", appCfg.Version, "port", appCfg.Port)

	configCache := feed.NewConfigCache(appCfg.FeedsDir, appCfg.DefaultLimit)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.FeedsDir)

	bodyCache, err := newCache(appCfg)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	var processorCache feed.BodyCache
	var healthCache api.HealthReporter
	if bodyCache != nil {
		processorCache = bodyCache
		healthCache = bodyCache
		defer bodyCache.Close()
	}

	processor := feed.NewProcessor(
		feed.NewFetcher(feed.NewHTTPClient(), appCfg.FetchTimeout, appCfg.MaxFeedSize, appCfg.UserAgent),
		feed.NewTransformer(feed.DefaultOptions()),
		processorCache,
		appCfg.CacheTTL,
		m,
	)

	handler := api.NewHandler(processor, configCache, healthCache, m, api.HandlerConfig{
		DefaultLimit: appCfg.DefaultLimit,
		BaseURL:      appCfg.BaseUrl,
		Version:      appCfg.Version,
	})
	server := api.NewServer(handler, m, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			"addr", httpServer.Addr,
			"api_enabled", appCfg.APIAccessKey != "",
			"usage", fmt.Sprintf("http://localhost:%s/?feed=<podcast_feed_url>&limit=<number_of_episodes>", appCfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Transpod shutdown complete")
}

// newCache returns nil when caching is disabled.
func newCache(appCfg *cfg.Cfg) (cache.Cache, error) {
	if appCfg.CacheTTL <= 0 {
		slog.Info("Body cache disabled")
		return nil, nil
	}

	if appCfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		redisCache, err := cache.NewRedisCache(ctx, appCfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return redisCache, nil
	}

	slog.Info("Using in-memory body cache", "ttl", appCfg.CacheTTL)
	return cache.NewMemoryCache(appCfg.CacheTTL), nil
}
