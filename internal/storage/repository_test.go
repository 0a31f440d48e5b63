package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverlog/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "driverlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func standardFixture(t *testing.T, id string) core.WorkRecord {
	t.Helper()
	rec, err := core.NewStandardRecord(id, core.NewDate(2024, 2, 10), "dx1", 100, 20, []string{"photos/a.jpg"},
		time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return rec
}

func dailyFixture(t *testing.T, id string) core.WorkRecord {
	t.Helper()
	rec, err := core.NewDailyRateRecord(id, core.NewDate(2024, 2, 15), []string{"ab1", "cd2"}, 200, nil,
		time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return rec
}

func TestAppendAndListRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Append(ctx, standardFixture(t, "rec-1"))
	require.NoError(t, err)
	assert.Equal(t, "rec-1", ref)

	_, err = repo.Append(ctx, dailyFixture(t, "rec-2"))
	require.NoError(t, err)

	records, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	std, ok := records[0].(core.StandardRecord)
	require.True(t, ok)
	assert.Equal(t, "DX1", std.RouteID)
	assert.Equal(t, 100, std.ParcelCount)
	assert.Equal(t, 20, std.CollectionCount)
	assert.Equal(t, int64(11600), std.Total.Cents)
	assert.Equal(t, []string{"photos/a.jpg"}, std.PhotoKeys)

	daily, ok := records[1].(core.DailyRateRecord)
	require.True(t, ok)
	assert.Equal(t, []string{"AB1", "CD2"}, daily.RouteIDs)
	assert.Equal(t, int64(30000), daily.Total.Cents)
	assert.Equal(t, core.Tier150To250, daily.TierLabel)
}

func TestSoftDeleteHidesFromList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, standardFixture(t, "rec-1"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "rec-1"))

	records, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The row survives the soft delete for the sync worker.
	rec, deleted, err := repo.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, "rec-1", rec.Meta().ID)

	assert.ErrorIs(t, repo.Delete(ctx, "rec-1"), ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrRecordNotFound)
}

func TestGetRecordNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, _, err := repo.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, standardFixture(t, "rec-1"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, dailyFixture(t, "rec-2"))
	require.NoError(t, err)

	pending, err := repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "rec-1", pending[0].ID)

	require.NoError(t, repo.MarkSynced(ctx, "rec-1"))
	require.NoError(t, repo.MarkSyncError(ctx, "rec-2"))

	pending, err = repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeleteRequeuesForSync(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, standardFixture(t, "rec-1"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkSynced(ctx, "rec-1"))

	require.NoError(t, repo.Delete(ctx, "rec-1"))

	pending, err := repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "rec-1", pending[0].ID)
}
