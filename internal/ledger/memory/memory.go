// Package memory is an in-memory ledger backend used for development and
// tests. Records live only as long as the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"driverlog/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.WorkRecord
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic reference.
func (s *Store) Append(_ context.Context, rec core.WorkRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Delete removes the record with the given id, if present.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.items {
		if rec.Meta().ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("record %s not found", id)
}

// ListRecords returns a copy of the collection in insertion order.
func (s *Store) ListRecords(_ context.Context) ([]core.WorkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.WorkRecord, len(s.items))
	copy(out, s.items)
	return out, nil
}
