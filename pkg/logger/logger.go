// Package logger builds the zerolog loggers used across the journal. The
// process logger is created once in main; subsystems derive child loggers
// through ForComponent so every entry names its origin.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Human-readable console output instead of JSON
}

// New creates the process logger writing to stdout
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Split out from New so tests
// can capture entries in a buffer.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = w
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ForComponent returns a child of parent with the component field set
func ForComponent(parent zerolog.Logger, name string) zerolog.Logger {
	return parent.With().Str("component", name).Logger()
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
