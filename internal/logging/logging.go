// Package logging initialises a [log/slog] logger from the application
// configuration and provides context-based logger propagation.
//
// Besides the standard text and JSON handlers, the package provides
// [EventHandler], which renders records as watch events:
//
//	[1700000000][run build]: go build ./...
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/hupe1980/onchange/internal/config"
)

type ctxKey struct{}

// PayloadKey is the attribute key carrying an event's payload.
const PayloadKey = "payload"

// FatalEvent is the event name logged right before the process terminates.
const FatalEvent = "fatal"

// SetupWithWriter creates a *slog.Logger configured according to cfg, writing
// to w, and installs it as the process-wide default via slog.SetDefault.
func SetupWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.EffectiveLogLevel())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case config.LogFormatText:
		handler = slog.NewTextHandler(w, opts)
	default: // event
		handler = NewEventHandler(w, &EventHandlerOptions{Level: level, NoColor: cfg.NoColor})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Event logs an informational watch event.
func Event(logger *slog.Logger, event, payload string) {
	logger.Info(event, slog.String(PayloadKey, payload))
}

// Fatal logs the event that precedes process termination.
func Fatal(logger *slog.Logger, payload string) {
	logger.Error(FatalEvent, slog.String(PayloadKey, payload))
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}
