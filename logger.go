package vemos

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with vemos-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithDataset adds the dataset name.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{Logger: l.Logger.With("dataset", name)}
}

// WithSource adds the name of the file being processed.
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{Logger: l.Logger.With("source", source)}
}

// LogLoad logs the load of a score file.
func (l *Logger) LogLoad(ctx context.Context, source string, metrics []string, pairs int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "load completed",
		"source", source,
		"metrics", metrics,
		"pairs", pairs,
		"duration", d,
	)
}

// LogLoadBatch logs the outcome of a parallel load.
func (l *Logger) LogLoadBatch(ctx context.Context, files, failed int, d time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch load completed with failures",
			"files", files,
			"failed", failed,
			"duration", d,
		)
		return
	}
	l.InfoContext(ctx, "batch load completed",
		"files", files,
		"duration", d,
	)
}

// LogRecords logs the load of a description file.
func (l *Logger) LogRecords(ctx context.Context, source string, added int, duplicates []string, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "records load failed",
			"source", source,
			"error", err,
		)
	case len(duplicates) > 0:
		l.WarnContext(ctx, "records loaded with duplicates",
			"source", source,
			"added", added,
			"duplicates", duplicates,
		)
	default:
		l.InfoContext(ctx, "records loaded",
			"source", source,
			"added", added,
		)
	}
}

// LogSnapshot logs a save or restore.
func (l *Logger) LogSnapshot(ctx context.Context, op string, id uint64, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"id", id,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot completed",
		"op", op,
		"id", id,
		"bytes", bytes,
	)
}
