package api

import (
	"context"

	"github.com/lysyi3m/transpod/app/feed"
	"github.com/lysyi3m/transpod/app/metrics"
)

type ProcessorInterface interface {
	Run(ctx context.Context, req feed.Request) (*feed.Result, error)
}

var _ ProcessorInterface = (*feed.Processor)(nil)

type HealthReporter interface {
	Health(ctx context.Context) map[string]interface{}
}

type HandlerConfig struct {
	DefaultLimit int
	BaseURL      string // overrides scheme://host when building self links
	Version      string
}

type Handler struct {
	processor   ProcessorInterface
	configCache *feed.ConfigCache
	cache       HealthReporter
	metrics     *metrics.Metrics
	cfg         HandlerConfig
}
