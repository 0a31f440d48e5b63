package core

import (
	"strings"
	"testing"
	"time"
)

func TestToDelimitedText(t *testing.T) {
	base := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	records := []WorkRecord{
		mustStandard(t, "a", "2024-02-10", "DX1", 100, 20, base),
		mustDaily(t, "b", "2024-02-15", []string{"AB1", "CD2"}, 200, base),
	}

	out := ToDelimitedText(records)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Date,Mode,RouteIds,ParcelCount,CollectionCount,TotalValue" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != `2024-02-10,NORMAL,"DX1",100,20,116.00` {
		t.Fatalf("standard row = %q", lines[1])
	}
	if lines[2] != `2024-02-15,DAILY,"AB1 + CD2",200,-,300.00` {
		t.Fatalf("daily row = %q", lines[2])
	}
}

func TestToDelimitedTextPreservesCallerOrder(t *testing.T) {
	base := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	// Deliberately not chronological; the formatter must not re-sort.
	records := []WorkRecord{
		mustStandard(t, "b", "2024-02-15", "R2", 2, 0, base),
		mustStandard(t, "a", "2024-02-10", "R1", 1, 0, base),
	}
	lines := strings.Split(ToDelimitedText(records), "\n")
	if !strings.HasPrefix(lines[1], "2024-02-15") || !strings.HasPrefix(lines[2], "2024-02-10") {
		t.Fatalf("caller order not preserved: %v", lines[1:])
	}
}

func TestToDelimitedTextEmpty(t *testing.T) {
	if got := ToDelimitedText(nil); got != "Date,Mode,RouteIds,ParcelCount,CollectionCount,TotalValue" {
		t.Fatalf("empty export = %q", got)
	}
}
