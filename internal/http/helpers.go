package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"driverlog/internal/core"
)

// parseMonthKey extracts a YYYY-MM month from the query string. The current
// month is the default for absent or invalid input.
func parseMonthKey(r *http.Request) (year, month int, key string) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if t, err := time.Parse("2006-01", v); err == nil {
			year = t.Year()
			month = int(t.Month())
		}
	}
	return year, month, fmt.Sprintf("%04d-%02d", year, month)
}

// parseModeFilter maps the mode query parameter to a record filter. Anything
// unrecognized falls back to showing both variants.
func parseModeFilter(r *http.Request) core.ModeFilter {
	switch strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("mode"))) {
	case string(core.ModeStandard):
		return core.FilterStandard
	case string(core.ModeDailyRate):
		return core.FilterDailyRate
	default:
		return core.FilterAll
	}
}

// parseHistoryMonth returns a YYYY-MM month filter or MonthAll.
func parseHistoryMonth(r *http.Request) string {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" || strings.EqualFold(v, core.MonthAll) {
		return core.MonthAll
	}
	if _, err := time.Parse("2006-01", v); err != nil {
		return core.MonthAll
	}
	return v
}

// formatReais formats cents as a currency string for the UI (e.g., "R$ 12,34").
// The delimited export keeps its own locale-free format.
func formatReais(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}

// routeDisplay renders the route column of either record variant. Two-route
// days join their ids with " + ", matching the export format.
func routeDisplay(rec core.WorkRecord) string {
	switch v := rec.(type) {
	case core.StandardRecord:
		return v.RouteID
	case core.DailyRateRecord:
		return strings.Join(v.RouteIDs, " + ")
	}
	return ""
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// newRecordID mints a collision-resistant record id for a single-writer app.
func newRecordID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
