package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverlog/internal/amqp"
	"driverlog/internal/core"
	"driverlog/internal/ledger/memory"
	"driverlog/internal/storage"
)

type failingMirror struct{}

func (failingMirror) Append(context.Context, core.WorkRecord) (string, error) {
	return "", errors.New("sheet unavailable")
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "driverlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func appendFixture(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	rec, err := core.NewStandardRecord(id, core.NewDate(2024, 2, 10), "DX1", 10, 0, nil, core.NewDate(2024, 2, 10).Time)
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), rec)
	require.NoError(t, err)
}

func TestHandleMessageUpsert(t *testing.T) {
	repo := newTestRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)
	ctx := context.Background()

	appendFixture(t, repo, "rec-1")

	require.NoError(t, w.HandleMessage(ctx, amqp.NewRecordSyncMessage("rec-1")))

	mirrored, err := mirror.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, "rec-1", mirrored[0].Meta().ID)

	pending, err := repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleMessageDelete(t *testing.T) {
	repo := newTestRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)
	ctx := context.Background()

	appendFixture(t, repo, "rec-1")
	require.NoError(t, w.HandleMessage(ctx, amqp.NewRecordSyncMessage("rec-1")))
	require.NoError(t, repo.Delete(ctx, "rec-1"))

	require.NoError(t, w.HandleMessage(ctx, amqp.NewRecordDeleteMessage("rec-1")))

	mirrored, err := mirror.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, mirrored)
}

func TestHandleMessageSkipsMissingRecord(t *testing.T) {
	repo := newTestRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)

	// A message for a purged record is dropped, not retried forever.
	assert.NoError(t, w.HandleMessage(context.Background(), amqp.NewRecordSyncMessage("gone")))
}

func TestHandleMessageRejectsUnknownAction(t *testing.T) {
	repo := newTestRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)

	msg := &amqp.RecordSyncMessage{ID: "rec-1", Action: "bogus"}
	assert.Error(t, w.HandleMessage(context.Background(), msg))
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	repo := newTestRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 2)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		appendFixture(t, repo, id)
	}

	require.NoError(t, w.StartupSyncCheck(ctx))

	mirrored, err := mirror.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, mirrored, 3)

	pending, err := repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMirrorFailureMarksSyncError(t *testing.T) {
	repo := newTestRepo(t)
	w := NewSyncWorker(repo, failingMirror{}, nil, 10)
	ctx := context.Background()

	appendFixture(t, repo, "rec-1")

	assert.Error(t, w.HandleMessage(ctx, amqp.NewRecordSyncMessage("rec-1")))

	// Errored records leave the pending queue.
	pending, err := repo.GetPendingSyncRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
