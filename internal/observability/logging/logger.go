// Package logging configures structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// DefaultConfig returns console logging at info level, the right
// default for an interactive CLI.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// Init initializes the global zerolog logger. Transcript lines go to
// stdout; logs go to stderr so the two can be piped separately.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stderr
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}

// WithSession returns a logger with streaming session context.
func WithSession(sessionID, provider string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Str("sttProvider", provider).
		Logger()
}

// WithSegment returns a logger with segment context.
func WithSegment(sessionID, segmentID string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Str("segmentId", segmentID).
		Logger()
}

// WithJob returns a logger with batch job context.
func WithJob(jobName string) zerolog.Logger {
	return log.With().
		Str("jobName", jobName).
		Logger()
}
