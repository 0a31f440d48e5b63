package services

import (
	"context"
	"fmt"
	"log/slog"

	"driverlog/internal/amqp"
	"driverlog/internal/core"
	"driverlog/internal/storage"
)

// RecordService orchestrates record operations across SQLite and AMQP. The
// database write is the source of truth; the queue publish mirrors the change
// to the remote sheet and must never fail the request.
type RecordService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewRecordService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateRecord saves a record locally and publishes a sync message.
func (s *RecordService) CreateRecord(ctx context.Context, rec core.WorkRecord) (string, error) {
	ref, err := s.storage.Append(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}

	// Non-fatal: the record is saved locally, the worker backfills later.
	if err := s.publishSync(ctx, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", ref, "error", err)
	}

	return ref, nil
}

// DeleteRecord soft deletes a record locally and publishes a delete message.
func (s *RecordService) DeleteRecord(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// ListRecords returns the live record collection.
func (s *RecordService) ListRecords(ctx context.Context) ([]core.WorkRecord, error) {
	return s.storage.ListRecords(ctx)
}

func (s *RecordService) publishSync(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishRecordSync(ctx, id)
}

func (s *RecordService) publishDelete(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishRecordDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *RecordService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
