package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

var _ Store = (*FileStore)(nil)
var _ StatusReporter = (*FileStore)(nil)

// FileStore keeps the catalogue in one JSON file. Writes go to a .tmp
// sibling that is renamed over the document.
type FileStore struct {
	path string
	log  *logger.Logger
}

// NewFileStore creates the data directory and an empty document if needed
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			return nil, fmt.Errorf("failed to initialize data file: %w", err)
		}
	}

	return &FileStore{path: path, log: log}, nil
}

// Path returns the document location
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll reads the document; a missing or unreadable file is an empty store
func (s *FileStore) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("failed to read data file, treating store as empty",
				"path", s.path,
				"error", err,
			)
		}
		return []models.ImageRecord{}, nil
	}

	return decodeDocument(data, s.path, s.log), nil
}

// SaveAll writes the document to path.tmp and renames it into place
func (s *FileStore) SaveAll(ctx context.Context, records []models.ImageRecord) error {
	data, err := encodeDocument(records)
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", models.ErrPersistence, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: create data directory: %w", models.ErrPersistence, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %w", models.ErrPersistence, tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %w", models.ErrPersistence, tmp, err)
	}

	s.log.Debug("record document saved", "path", s.path, "records", len(records))
	return nil
}

// Status reports the file location, size and modification time
func (s *FileStore) Status(ctx context.Context) (*Status, error) {
	count, records, err := countRecords(ctx, s)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Backend:     "file",
		Location:    s.path,
		RecordCount: count,
		Records:     records,
	}

	if info, err := os.Stat(s.path); err == nil {
		modified := info.ModTime()
		status.Exists = true
		status.SizeBytes = info.Size()
		status.ModifiedAt = &modified
	}

	return status, nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
