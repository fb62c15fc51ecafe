package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "images.json")
	s, err := NewFileStore(path, logger.Nop())
	require.NoError(t, err)
	return s, path
}

func TestFileStore_Contract(t *testing.T) {
	s, _ := newTestFileStore(t)
	storeContract(t, s)
}

func TestFileStore_CreatesEmptyDocument(t *testing.T) {
	_, path := newTestFileStore(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, os.Remove(path))

	records, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "broken`), 0644))

	records, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_SaveLeavesNoTempFile(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, s.SaveAll(context.Background(), sampleRecords()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStore_SaveFailureIsPersistenceError(t *testing.T) {
	s, path := newTestFileStore(t)

	// A directory where the temp file should go makes the write fail
	require.NoError(t, os.Mkdir(path+".tmp", 0755))

	err := s.SaveAll(context.Background(), sampleRecords())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistence)

	// The previous document is untouched
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileStore_Status(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, s.SaveAll(context.Background(), sampleRecords()))

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file", status.Backend)
	assert.Equal(t, path, status.Location)
	assert.True(t, status.Exists)
	assert.Equal(t, 2, status.RecordCount)
	assert.Positive(t, status.SizeBytes)
	assert.NotNil(t, status.ModifiedAt)
}
