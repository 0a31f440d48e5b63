// Package cache provides the in-process caches that sit between the HTTP
// handlers and the ledger backend.
package cache

import (
	"log/slog"
	"time"
)

// Cache is the read side shared by every cache in this package.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is any cache that can shed expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the periodic cleanup of registered caches so each cache does
// not need its own goroutine.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the cleanup cycle. Not safe to call after
// StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, cache := range m.caches {
				cleaned += cache.CleanExpired()
			}
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop halts the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
