package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		APIBaseURL:     "https://api.tipfeed.app/v1",
		WebBaseURL:     "https://tipfeed.app",
		Token:          "secret",
		DBPath:         "tipfeed.db",
		PageSize:       20,
		RequestTimeout: 10 * time.Second,
		RateLimit:      8,
		RateBurst:      4,
		LogLevel:       "info",
	}
}

func TestLoadFromEnv_UsesDefaults(t *testing.T) {
	t.Setenv("TIPFEED_TOKEN", "secret")
	t.Setenv("TIPFEED_API_BASE_URL", "")
	t.Setenv("TIPFEED_WEB_BASE_URL", "")
	t.Setenv("TIPFEED_DB_PATH", "")
	t.Setenv("TIPFEED_PAGE_SIZE", "")
	t.Setenv("TIPFEED_REQUEST_TIMEOUT", "")
	t.Setenv("TIPFEED_RATE_LIMIT", "")
	t.Setenv("TIPFEED_RATE_BURST", "")
	t.Setenv("TIPFEED_LOG_LEVEL", "")
	t.Setenv("TIPFEED_METRICS_ADDR", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned error: %v", err)
	}

	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected API base URL: %s", cfg.APIBaseURL)
	}
	if cfg.WebBaseURL != defaultWebBaseURL {
		t.Fatalf("unexpected web base URL: %s", cfg.WebBaseURL)
	}
	if cfg.DBPath != "tipfeed.db" {
		t.Fatalf("unexpected DB path: %s", cfg.DBPath)
	}
	if cfg.PageSize != 20 {
		t.Fatalf("unexpected page size: %d", cfg.PageSize)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 8 || cfg.RateBurst != 4 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("TIPFEED_TOKEN", "secret")
	t.Setenv("TIPFEED_PAGE_SIZE", "50")
	t.Setenv("TIPFEED_REQUEST_TIMEOUT", "3s")
	t.Setenv("TIPFEED_LOG_LEVEL", "DEBUG")
	t.Setenv("TIPFEED_METRICS_ADDR", "127.0.0.1:9090")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned error: %v", err)
	}
	if cfg.PageSize != 50 || cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lowercased log level, got %s", cfg.LogLevel)
	}
	if cfg.MetricsAddr != "127.0.0.1:9090" {
		t.Fatalf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
}

func TestLoadFromEnv_MissingToken(t *testing.T) {
	t.Setenv("TIPFEED_TOKEN", "")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLoadFromEnv_BadNumbers(t *testing.T) {
	t.Setenv("TIPFEED_TOKEN", "secret")
	for key, value := range map[string]string{
		"TIPFEED_PAGE_SIZE":       "many",
		"TIPFEED_REQUEST_TIMEOUT": "10",
		"TIPFEED_RATE_LIMIT":      "fast",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestValidate_APIBaseURLTrailingSlash(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "https://api.tipfeed.app/v1/"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate_PageSizeBounds(t *testing.T) {
	for _, size := range []int{0, 101} {
		cfg := validConfig()
		cfg.PageSize = size
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected validation error for page size %d", size)
		}
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for log level")
	}
}

func TestValidate_MetricsAddr(t *testing.T) {
	cfg := validConfig()
	cfg.MetricsAddr = "not an address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for metrics addr")
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadFromEnv_IsolatedFromHostEnvironment(t *testing.T) {
	t.Setenv("TIPFEED_TOKEN", "")
	os.Unsetenv("TIPFEED_API_BASE_URL")
	os.Unsetenv("TIPFEED_DB_PATH")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error when the token is missing")
	}
}
