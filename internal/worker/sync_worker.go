package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"driverlog/internal/amqp"
	"driverlog/internal/ledger"
	"driverlog/internal/storage"
)

// SyncWorker mirrors records from SQLite to the remote Google Sheet. The
// local database stays the source of truth; the sheet is a best-effort copy.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    ledger.RecordWriter
	deleter   ledger.RecordDeleter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror ledger.RecordWriter, deleter ledger.RecordDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single sync message from AMQP.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionUpsert:
		return w.syncRecord(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.deleteRecord(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}

func (w *SyncWorker) syncRecord(ctx context.Context, id string) error {
	rec, deleted, err := w.storage.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			// The record was purged before the message arrived; drop it.
			slog.WarnContext(ctx, "Record gone before sync, skipping", "id", id)
			return nil
		}
		return fmt.Errorf("get record from storage: %w", err)
	}
	if deleted {
		// Deleted between publish and consume. The delete message handles
		// the mirror side.
		slog.InfoContext(ctx, "Record deleted before sync, skipping", "id", id)
		return nil
	}

	ref, err := w.mirror.Append(ctx, rec)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror write succeeded, keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Record mirrored to sheet",
		"id", id,
		"sheet_ref", ref)

	return nil
}

func (w *SyncWorker) deleteRecord(ctx context.Context, id string) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No record deleter configured, skipping sheet deletion", "id", id)
		return nil
	}

	if err := w.deleter.Delete(ctx, id); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("delete from sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Record removed from sheet", "id", id)
	return nil
}

// ProcessPendingRecords pushes records that never got a queue message. This
// is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPendingRecords(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains the pending backlog once at worker startup, with a
// larger batch to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSyncRecords(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending sync records: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		rec, deleted, err := w.storage.GetRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get pending record", "id", p.ID, "error", err)
			failed++
			continue
		}

		if deleted {
			if err := w.deleteRecord(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mirror pending delete", "id", p.ID, "error", err)
				failed++
			} else {
				synced++
			}
			continue
		}

		if _, err := w.mirror.Append(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending record", "id", p.ID, "error", err)
			if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
			}
			failed++
			continue
		}
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark as synced", "id", p.ID, "error", err)
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}
