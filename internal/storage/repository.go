package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"driverlog/internal/core"

	_ "modernc.org/sqlite"
)

var ErrRecordNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.RecordWriter.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.WorkRecord) (string, error) {
	meta := rec.Meta()

	var routeIDs []string
	collections := 0
	switch v := rec.(type) {
	case core.StandardRecord:
		routeIDs = []string{v.RouteID}
		collections = v.CollectionCount
	case core.DailyRateRecord:
		routeIDs = v.RouteIDs
	default:
		return "", fmt.Errorf("unsupported record type %T", rec)
	}

	routesJSON, err := json.Marshal(routeIDs)
	if err != nil {
		return "", fmt.Errorf("encode route ids: %w", err)
	}
	photosJSON, err := json.Marshal(photoKeysOrEmpty(meta.PhotoKeys))
	if err != nil {
		return "", fmt.Errorf("encode photo keys: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (id, record_date, mode, route_ids, parcel_count, collection_count, total_cents, photo_keys, created_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		meta.ID, meta.Date.ISO(), string(rec.Mode()), string(routesJSON),
		rec.Parcels(), collections, meta.Total.Cents, string(photosJSON), meta.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", meta.ID,
		"mode", rec.Mode(),
		"date", meta.Date.ISO(),
		"total_cents", meta.Total.Cents)

	return meta.ID, nil
}

// Delete implements ledger.RecordDeleter via soft delete. The row stays
// behind so the sync worker can mirror the removal.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET deleted_at = ?, sync_status = 'pending' WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	slog.InfoContext(ctx, "Record soft deleted", "id", id)
	return nil
}

// ListRecords implements ledger.RecordLister. Soft-deleted rows are excluded.
func (r *SQLiteRepository) ListRecords(ctx context.Context) ([]core.WorkRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_date, mode, route_ids, parcel_count, collection_count, photo_keys, created_at
		FROM records
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []core.WorkRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// GetRecord returns a single record by id, soft-deleted rows included. The
// sync worker needs deleted rows to mirror removals.
func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.WorkRecord, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, record_date, mode, route_ids, parcel_count, collection_count, photo_keys, created_at, deleted_at IS NOT NULL
		FROM records
		WHERE id = ?`, id)

	var (
		recID, dateStr, mode, routesJSON, photosJSON string
		parcels, collections                         int
		createdAt                                    time.Time
		deleted                                      bool
	)
	if err := row.Scan(&recID, &dateStr, &mode, &routesJSON, &parcels, &collections, &photosJSON, &createdAt, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrRecordNotFound
		}
		return nil, false, fmt.Errorf("get record: %w", err)
	}

	rec, err := buildRecord(recID, dateStr, mode, routesJSON, photosJSON, parcels, collections, createdAt)
	if err != nil {
		return nil, false, err
	}
	return rec, deleted, nil
}

// PendingSyncRecord carries the minimum the sync queue needs.
type PendingSyncRecord struct {
	ID        string
	CreatedAt time.Time
}

// GetPendingSyncRecords returns records not yet mirrored to the remote sheet.
func (r *SQLiteRepository) GetPendingSyncRecords(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM records
		WHERE sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced marks a record as mirrored to the remote sheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a record whose mirror attempt failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}

func scanRecord(rows *sql.Rows) (core.WorkRecord, error) {
	var (
		id, dateStr, mode, routesJSON, photosJSON string
		parcels, collections                      int
		createdAt                                 time.Time
	)
	if err := rows.Scan(&id, &dateStr, &mode, &routesJSON, &parcels, &collections, &photosJSON, &createdAt); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return buildRecord(id, dateStr, mode, routesJSON, photosJSON, parcels, collections, createdAt)
}

func buildRecord(id, dateStr, mode, routesJSON, photosJSON string, parcels, collections int, createdAt time.Time) (core.WorkRecord, error) {
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("record %s: parse date %q: %w", id, dateStr, err)
	}

	var routeIDs []string
	if err := json.Unmarshal([]byte(routesJSON), &routeIDs); err != nil {
		return nil, fmt.Errorf("record %s: decode route ids: %w", id, err)
	}
	var photoKeys []string
	if err := json.Unmarshal([]byte(photosJSON), &photoKeys); err != nil {
		return nil, fmt.Errorf("record %s: decode photo keys: %w", id, err)
	}

	switch core.Mode(mode) {
	case core.ModeStandard:
		if len(routeIDs) == 0 {
			return nil, fmt.Errorf("record %s: no route id", id)
		}
		rec, err := core.NewStandardRecord(id, date, routeIDs[0], parcels, collections, photoKeys, createdAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		return rec, nil
	case core.ModeDailyRate:
		rec, err := core.NewDailyRateRecord(id, date, routeIDs, parcels, photoKeys, createdAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("record %s: unknown mode %q", id, mode)
	}
}

func photoKeysOrEmpty(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
