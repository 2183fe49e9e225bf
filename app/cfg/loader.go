package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service, used for self links (e.g., https://feeds.example.com)"`

	// Upstream fetching
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"Transpod/1.0" description:"User agent string for upstream requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Upstream fetch timeout in seconds"`
	MaxFeedSize  int64  `long:"max-feed-size" env:"MAX_FEED_SIZE" default:"20971520" description:"Maximum upstream feed size in bytes"`
	DefaultLimit int    `long:"default-limit" env:"DEFAULT_LIMIT" default:"10" description:"Number of items kept when no limit is given"`

	// Body cache
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Upstream body cache TTL in seconds (0 disables caching)"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the body cache (in-memory cache when empty)"`

	// Presets and API
	FeedsDir     string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing preset feed files"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses os.Args and the environment. It returns nil, nil when help
// was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Cfg{
		Port:         raw.Port,
		BaseUrl:      strings.TrimRight(raw.BaseUrl, "/"),
		UserAgent:    raw.UserAgent,
		FetchTimeout: time.Duration(raw.FetchTimeout) * time.Second,
		MaxFeedSize:  raw.MaxFeedSize,
		DefaultLimit: raw.DefaultLimit,
		CacheTTL:     time.Duration(raw.CacheTTL) * time.Second,
		RedisAddr:    raw.RedisAddr,
		FeedsDir:     raw.FeedsDir,
		APIAccessKey: raw.APIAccessKey,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(raw *rawCfg) error {
	if raw.FetchTimeout < 1 {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}
	if raw.MaxFeedSize < 1 {
		return fmt.Errorf("max feed size must be positive")
	}
	if raw.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be a positive number")
	}
	if raw.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must be non-negative")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
