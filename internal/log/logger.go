package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is a thin slog wrapper that stamps every line with the owning
// component. Handlers receive the component as a regular attribute, so
// lines from the HTTP layer, the sync worker and storage stay filterable
// in one stream.
type Logger struct {
	*slog.Logger
	component string
}

// Config selects the level and component tag for a Logger. Handler is
// optional; when nil a text handler on stdout is used.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

func (l *Logger) logContext(ctx context.Context, level slog.Level, msg string, args []any) {
	l.Logger.Log(ctx, level, msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, slog.LevelDebug, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, slog.LevelInfo, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, slog.LevelWarn, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, slog.LevelError, msg, args)
}
