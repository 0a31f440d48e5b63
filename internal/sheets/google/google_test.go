package google

import (
	"testing"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Records", 2024, "2024 Records"},
		{"2023 Records", 2024, "2023 Records"},
		{"", 2024, ""},
		{"  Records  ", 2024, "2024 Records"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestParseRowStandard(t *testing.T) {
	rec, err := parseRow([]string{"rec-1", "2024-02-10", "NORMAL", "DX1", "100", "20", "116.00"})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if rec.Meta().ID != "rec-1" || rec.Parcels() != 100 {
		t.Errorf("parsed record = %+v", rec)
	}
	if rec.Meta().Total.Cents != 11600 {
		t.Errorf("total = %d cents, want 11600", rec.Meta().Total.Cents)
	}
}

func TestParseRowDaily(t *testing.T) {
	rec, err := parseRow([]string{"rec-2", "2024-02-15", "DAILY", "AB1 + CD2", "200", "-", "300.00"})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if rec.Meta().Total.Cents != 30000 {
		t.Errorf("total = %d cents, want 30000", rec.Meta().Total.Cents)
	}
}

func TestParseRowRejectsMalformed(t *testing.T) {
	for name, cols := range map[string][]string{
		"short row":    {"rec-1", "2024-02-10"},
		"missing id":   {"", "2024-02-10", "NORMAL", "DX1", "1", "0"},
		"bad date":     {"rec-1", "header", "NORMAL", "DX1", "1", "0"},
		"unknown mode": {"rec-1", "2024-02-10", "WEEKLY", "DX1", "1", "0"},
	} {
		if _, err := parseRow(cols); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRoundTripCells(t *testing.T) {
	rec, err := parseRow([]string{"rec-1", "2024-02-10", "NORMAL", "DX1", "100", "20"})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if routeIDsCell(rec) != "DX1" {
		t.Errorf("routeIDsCell = %q", routeIDsCell(rec))
	}
	if collectionsCell(rec) != "20" {
		t.Errorf("collectionsCell = %q", collectionsCell(rec))
	}
}
