// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds configuration shared by the binaries.
type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`
	LogLevel    zerolog.Level

	// LogConsole switches logs to human-readable output (LOG_FORMAT=console).
	LogConsole bool

	WeatherAPI WeatherAPIConfig

	// CatalogPath optionally replaces the embedded astronomy catalog.
	CatalogPath string `validate:"omitempty,file"`

	Telemetry TelemetryConfig

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// WeatherAPIConfig configures the WeatherAPI.com client.
type WeatherAPIConfig struct {
	APIKey  string        `validate:"required"`
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`

	// RequestsPerSecond and Burst throttle outbound calls.
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gte=1"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string  `validate:"required_if=Enabled true"`
	SampleRatio  float64 `validate:"gte=0,lte=1"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("WEATHERAPI_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHERAPI_TIMEOUT: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnvOrDefault("WEATHERAPI_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHERAPI_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnvOrDefault("WEATHERAPI_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHERAPI_BURST: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnvOrDefault("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLE_RATIO: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    level,
		LogConsole:  os.Getenv("LOG_FORMAT") == "console",
		WeatherAPI: WeatherAPIConfig{
			APIKey:            os.Getenv("WEATHERAPI_KEY"),
			BaseURL:           getEnvOrDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com/v1"),
			Timeout:           timeout,
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		CatalogPath: os.Getenv("ASTRONOMY_CATALOG_PATH"),
		Telemetry: TelemetryConfig{
			Enabled:      os.Getenv("OTEL_ENABLED") == "true",
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  sampleRatio,
		},
		RequireTLS: os.Getenv("REQUIRE_TLS") == "true",
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
