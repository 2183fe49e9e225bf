package feed

import (
	"time"
)

// Proxy request types

type Request struct {
	FeedURL string
	Limit   int
	SelfURL string
	Timeout time.Duration // zero uses the fetcher default
}

type Result struct {
	XML      string
	Stats    Stats
	FeedType string
	CacheHit bool
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
	Timeout int  `yaml:"timeout"` // seconds, 0 uses the fetcher default
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Settings.Timeout) * time.Second
}
