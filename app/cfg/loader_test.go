package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("Expected fetch timeout 10s, got %v", cfg.FetchTimeout)
	}
	if cfg.MaxFeedSize != 20<<20 {
		t.Errorf("Expected max feed size 20 MiB, got %d", cfg.MaxFeedSize)
	}
	if cfg.DefaultLimit != 10 {
		t.Errorf("Expected default limit 10, got %d", cfg.DefaultLimit)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("Expected cache TTL 300s, got %v", cfg.CacheTTL)
	}
	if cfg.UserAgent != "Transpod/1.0" {
		t.Errorf("Expected user agent 'Transpod/1.0', got '%s'", cfg.UserAgent)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("Expected empty redis address, got '%s'", cfg.RedisAddr)
	}
	if cfg.Version == "" {
		t.Error("Expected version to be set")
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsFlags(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--port", "9090",
		"--base-url", "https://feeds.example.com/",
		"--fetch-timeout", "3",
		"--default-limit", "4",
		"--cache-ttl", "0",
		"--redis-addr", "localhost:6379",
		"--api-key", "secret",
		"--debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.BaseUrl != "https://feeds.example.com" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.BaseUrl)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("Expected fetch timeout 3s, got %v", cfg.FetchTimeout)
	}
	if cfg.DefaultLimit != 4 {
		t.Errorf("Expected default limit 4, got %d", cfg.DefaultLimit)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("Expected cache disabled, got %v", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis address 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
	if cfg.APIAccessKey != "secret" {
		t.Errorf("Expected API key 'secret', got '%s'", cfg.APIAccessKey)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestLoadArgsEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DEFAULT_LIMIT", "25")
	t.Setenv("FEEDS_DIR", "/etc/transpod/feeds")

	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Expected port '7070', got '%s'", cfg.Port)
	}
	if cfg.DefaultLimit != 25 {
		t.Errorf("Expected default limit 25, got %d", cfg.DefaultLimit)
	}
	if cfg.FeedsDir != "/etc/transpod/feeds" {
		t.Errorf("Expected feeds dir '/etc/transpod/feeds', got '%s'", cfg.FeedsDir)
	}
}

func TestLoadArgsValidation(t *testing.T) {
	invalid := [][]string{
		{"--default-limit", "0"},
		{"--fetch-timeout", "0"},
		{"--cache-ttl", "-1"},
		{"--max-feed-size", "0"},
		{"--port"},
		{"--unknown-flag"},
	}

	for _, args := range invalid {
		if _, err := LoadArgs(args); err == nil {
			t.Errorf("Expected error for args %v", args)
		}
	}
}

func TestApplyTimezone(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to load, got %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be ignored, got %v", err)
	}
}
