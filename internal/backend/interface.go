package backend

import (
	"context"

	"driverlog/internal/ledger"
)

// Backend bundles the ledger ports the HTTP server needs.
type Backend interface {
	ledger.RecordWriter
	ledger.RecordDeleter
	ledger.RecordLister
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// BackendType represents the type of backend.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
