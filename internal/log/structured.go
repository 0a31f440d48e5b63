package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger provides structured logging methods for the HTTP layer.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP, requestID string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithRequestID(requestID).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. Client errors log at
// Warn, server errors at Error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP, requestID string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithRequestID(requestID).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogRecordCreated logs successful record creation.
func (sl *StructuredLogger) LogRecordCreated(ctx context.Context, id, date, mode string, totalCents int64) {
	fields := NewFields().
		WithRecord(id, date, mode, totalCents).
		WithOperation(OpCreate).
		WithComponent(ComponentRecord)

	sl.logger.InfoContext(ctx, "Record created successfully", fields.ToSlice()...)
}

// LogError logs an error with structured context.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
