package cfg

import (
	"time"
)

type Cfg struct {
	// HTTP configuration
	Port    string
	BaseUrl string

	// Upstream fetching
	UserAgent    string
	FetchTimeout time.Duration
	MaxFeedSize  int64
	DefaultLimit int

	// Body cache
	CacheTTL  time.Duration
	RedisAddr string

	// Presets and API
	FeedsDir     string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
