package store

import (
	"context"
	"sync"

	"github.com/lyzr/imagestore/common/models"
)

var _ Store = (*MemoryStore)(nil)
var _ StatusReporter = (*MemoryStore)(nil)

// MemoryStore keeps the document in process memory; contents are lost on
// restart
type MemoryStore struct {
	records []models.ImageRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: []models.ImageRecord{}}
}

// LoadAll returns a deep copy of the stored collection
func (s *MemoryStore) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneRecords(s.records), nil
}

// SaveAll replaces the stored collection with a deep copy of records
func (s *MemoryStore) SaveAll(ctx context.Context, records []models.ImageRecord) error {
	snapshot := cloneRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = snapshot
	return nil
}

// Status reports the record count
func (s *MemoryStore) Status(ctx context.Context) (*Status, error) {
	count, records, _ := countRecords(ctx, s)
	return &Status{
		Backend:     "memory",
		Exists:      true,
		RecordCount: count,
		Records:     records,
	}, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

func cloneRecords(records []models.ImageRecord) []models.ImageRecord {
	out := make([]models.ImageRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
