// Package local is a filesystem photo store. Keys are flat file names under
// a single base directory.
package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driverlog/internal/photostore"
)

type LocalPhotoStore struct {
	basePath string
}

func NewLocalPhotoStore(basePath string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	return &LocalPhotoStore{basePath: basePath}, nil
}

func (s *LocalPhotoStore) Save(ctx context.Context, recordID, mimeType string, r io.Reader) (string, error) {
	filename := fmt.Sprintf("%s_%d%s", sanitizePrefix(recordID), time.Now().UnixNano(), mimeTypeToExt(mimeType))
	filePath := filepath.Join(s.basePath, filename)

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// One byte over the limit distinguishes "too large" from "exactly at it".
	n, err := io.Copy(f, io.LimitReader(r, photostore.MaxPhotoBytes+1))
	if err == nil && n > photostore.MaxPhotoBytes {
		err = photostore.ErrTooLarge
	}
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		if err == photostore.ErrTooLarge {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("close file: %w", err)
	}
	return filename, nil
}

func (s *LocalPhotoStore) Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(storageKey)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	return f, extToMimeType(filePath), nil
}

func (s *LocalPhotoStore) Delete(ctx context.Context, storageKey string) error {
	filePath, err := s.safeJoin(storageKey)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// safeJoin resolves storageKey relative to basePath and rejects directory traversal.
func (s *LocalPhotoStore) safeJoin(storageKey string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, storageKey))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

// sanitizePrefix keeps storage keys flat even if a record id ever carries
// separators.
func sanitizePrefix(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ' ':
			return '_'
		}
		return r
	}, prefix)
}

func mimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func extToMimeType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
