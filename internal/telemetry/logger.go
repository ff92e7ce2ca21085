package telemetry

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Service string
	Version string
	Level   zerolog.Level

	// Console writes human-readable lines instead of JSON.
	Console bool
}

// NewLogger returns the root logger. Every entry carries a timestamp and the
// service name and version.
func NewLogger(w io.Writer, cfg LoggerConfig) zerolog.Logger {
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(w).Level(cfg.Level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}
	return ctx.Logger()
}
