// Package logger wires zerolog into the verification engine. A run ID
// travels with the context so every log line of a batch can be tied to
// the run that produced it.
package logger

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	loggerKey contextKey = "logger"
	runIDKey  contextKey = "run_id"
)

// New creates a zerolog.Logger with the specified level and JSON output.
// If the level string is invalid, it defaults to info.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRunID stores a run ID in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext retrieves the run ID from the context. Returns an
// empty string if not set.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext retrieves the logger from the context, attaching the run
// ID when one is present. If no logger is found a disabled logger is
// returned so library callers who never configured logging stay quiet.
func FromContext(ctx context.Context) zerolog.Logger {
	var log zerolog.Logger

	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		log = l
	} else {
		log = zerolog.Nop()
	}

	if id := RunIDFromContext(ctx); id != "" {
		log = log.With().Str("run_id", id).Logger()
	}

	return log
}

// NewRunID generates a new UUID-based run ID.
func NewRunID() string {
	return uuid.New().String()
}
