package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverlog/internal/photostore"
)

func TestSaveAndGet(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	imageData := []byte("fake jpeg data")

	key, err := store.Save(ctx, "1708000000000", "image/jpeg", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/jpeg", mimeType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestDelete(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	key, err := store.Save(ctx, "1708000000000", "image/png", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".png"))

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestGetNotFound(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "nonexistent.jpg")
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestPathTraversalRejected(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)

	err = store.Delete(context.Background(), "../escape.jpg")
	assert.Error(t, err)
}

func TestSaveRejectsOversizedPhoto(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	big := io.LimitReader(neverEndingReader{}, photostore.MaxPhotoBytes+10)
	_, err = store.Save(context.Background(), "rec", "image/jpeg", big)
	assert.ErrorIs(t, err, photostore.ErrTooLarge)
}

type neverEndingReader struct{}

func (neverEndingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}
