// Package photostore stores receipt photos attached to work records.
package photostore

import (
	"context"
	"errors"
	"io"
)

// MaxPhotoBytes caps a single uploaded photo.
const MaxPhotoBytes = 5 << 20

var (
	ErrNotFound = errors.New("photo not found")
	ErrTooLarge = errors.New("photo exceeds size limit")
)

type PhotoStore interface {
	// Save stores a photo and returns its storage key. The key goes into
	// the record's photo list.
	Save(ctx context.Context, recordID, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
