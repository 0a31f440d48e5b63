package adapters

import (
	"context"

	"driverlog/internal/core"
	"driverlog/internal/services"
	"driverlog/internal/storage"
)

// SQLiteAdapter adapts SQLiteRepository and RecordService to the ledger
// ports. Writes and deletes go through the service so every change hits the
// sync queue; reads go straight to storage.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.RecordService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.RecordService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// Append implements ledger.RecordWriter.
func (a *SQLiteAdapter) Append(ctx context.Context, rec core.WorkRecord) (string, error) {
	return a.service.CreateRecord(ctx, rec)
}

// Delete implements ledger.RecordDeleter.
func (a *SQLiteAdapter) Delete(ctx context.Context, id string) error {
	return a.service.DeleteRecord(ctx, id)
}

// ListRecords implements ledger.RecordLister.
func (a *SQLiteAdapter) ListRecords(ctx context.Context) ([]core.WorkRecord, error) {
	return a.storage.ListRecords(ctx)
}
