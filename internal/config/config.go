package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL     = "https://api.tipfeed.app/v1"
	defaultWebBaseURL     = "https://tipfeed.app"
	defaultDBPath         = "tipfeed.db"
	defaultPageSize       = 20
	defaultRequestTimeout = 10 * time.Second
	defaultRateLimit      = 8
	defaultRateBurst      = 4
	defaultLogLevel       = "info"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	APIBaseURL     string        `validate:"required,url"`
	WebBaseURL     string        `validate:"required,url"`
	Token          string        `validate:"required"`
	DBPath         string        `validate:"required"`
	PageSize       int           `validate:"min=1,max=100"`
	RequestTimeout time.Duration `validate:"min=1ms"`
	RateLimit      float64       `validate:"gt=0"`
	RateBurst      int           `validate:"min=1"`
	LogFile        string
	LogLevel       string `validate:"oneof=trace debug info warn error"`
	MetricsAddr    string `validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFromEnv reads TIPFEED_* variables. A .env file in the working directory
// is loaded first when present; variables already set take precedence.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL:  os.Getenv("TIPFEED_API_BASE_URL"),
		WebBaseURL:  os.Getenv("TIPFEED_WEB_BASE_URL"),
		Token:       os.Getenv("TIPFEED_TOKEN"),
		DBPath:      os.Getenv("TIPFEED_DB_PATH"),
		LogFile:     os.Getenv("TIPFEED_LOG_FILE"),
		LogLevel:    strings.ToLower(os.Getenv("TIPFEED_LOG_LEVEL")),
		MetricsAddr: os.Getenv("TIPFEED_METRICS_ADDR"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = defaultWebBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	var err error
	if cfg.PageSize, err = intEnv("TIPFEED_PAGE_SIZE", defaultPageSize); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = durationEnv("TIPFEED_REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = floatEnv("TIPFEED_RATE_LIMIT", defaultRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = intEnv("TIPFEED_RATE_BURST", defaultRateBurst); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("TIPFEED_TOKEN is required")
	}
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s is invalid (%s): %v", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	return nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %s", key, raw)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %s", key, raw)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s: %s", key, raw)
	}
	return v, nil
}
