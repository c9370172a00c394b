package log

import (
	"log/slog"
	"os"
	"strings"
)

type options struct {
	level     slog.Level
	addSource bool
}

type Option func(*options)

// WithLevel sets the minimum log level from its config string form.
func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(level) {
		case "debug", "verbose", "all":
			o.level = slog.LevelDebug
		case "warn", "warning":
			o.level = slog.LevelWarn
		case "error", "quiet":
			o.level = slog.LevelError
		default:
			o.level = slog.LevelInfo
		}
	}
}

// WithSource adds the source file and line to each record.
func WithSource() Option {
	return func(o *options) {
		o.addSource = true
	}
}

// New creates the application logger.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     o.level,
		AddSource: o.addSource,
	})

	return slog.New(handler)
}
