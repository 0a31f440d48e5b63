package memory

import (
	"context"
	"testing"
	"time"

	"driverlog/internal/core"
)

func testRecord(t *testing.T, id string) core.WorkRecord {
	t.Helper()
	rec, err := core.NewStandardRecord(id, core.NewDate(2024, 2, 10), "DX1", 10, 0, nil,
		time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return rec
}

func TestAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, testRecord(t, "a"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q", ref)
	}

	records, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Meta().ID != "a" {
		t.Fatalf("records = %+v", records)
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Append(ctx, testRecord(t, "a"))
	_, _ = s.Append(ctx, testRecord(t, "b"))

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, _ := s.ListRecords(ctx)
	if len(records) != 1 || records[0].Meta().ID != "b" {
		t.Fatalf("records after delete = %+v", records)
	}

	if err := s.Delete(ctx, "missing"); err == nil {
		t.Fatalf("deleting a missing record should fail")
	}
}
