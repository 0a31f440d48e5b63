package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

func newBufferLogger(component string, level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:     level,
		Component: component,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}),
	})
	return logger, &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	logger, buf := newBufferLogger("http", slog.LevelInfo)

	logger.InfoContext(context.Background(), "request started", "path", "/records")

	out := buf.String()
	if !strings.Contains(out, "component=http") {
		t.Errorf("line missing component attribute:\n%s", out)
	}
	if !strings.Contains(out, "path=/records") {
		t.Errorf("line missing caller attribute:\n%s", out)
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger("worker", slog.LevelWarn)

	logger.InfoContext(context.Background(), "below threshold")
	if buf.Len() != 0 {
		t.Errorf("info should be suppressed at warn level:\n%s", buf.String())
	}

	logger.ErrorContext(context.Background(), "sync failed", "id", "rec-1")
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "component=worker") {
		t.Errorf("unexpected error line:\n%s", out)
	}
}

func TestStructuredLoggerHTTPEnd(t *testing.T) {
	logger, buf := newBufferLogger("http", slog.LevelInfo)
	sl := NewStructuredLogger(logger)

	req := newTestRequest(t, "GET", "/export.csv")
	sl.LogHTTPEnd(context.Background(), req, 500, 12, "10.0.0.1", "req_abc")

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx should log at error level:\n%s", out)
	}
	if !strings.Contains(out, "status_code=500") || !strings.Contains(out, "request_id=req_abc") {
		t.Errorf("line missing response fields:\n%s", out)
	}
}
