// Package store persists the image catalogue as a single JSON document.
//
// Every backend exposes the same two operations: read the whole collection
// and atomically replace the whole collection. Callers own the
// load-modify-save cycle; the store does no per-record bookkeeping.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

// Store loads and replaces the full record collection.
//
// LoadAll never fails because the document is missing or corrupt: both
// degrade to an empty collection. Remote backends may still return an error
// when the backend itself is unreachable.
//
// SaveAll replaces the document atomically. Failures wrap
// models.ErrPersistence.
type Store interface {
	LoadAll(ctx context.Context) ([]models.ImageRecord, error)
	SaveAll(ctx context.Context, records []models.ImageRecord) error
	Close() error
}

// Status describes a backend for the debug endpoint
type Status struct {
	Backend     string               `json:"backend"`
	Location    string               `json:"location,omitempty"`
	Exists      bool                 `json:"exists"`
	SizeBytes   int64                `json:"sizeBytes"`
	ModifiedAt  *time.Time           `json:"modifiedAt,omitempty"`
	RecordCount int                  `json:"recordCount"`
	Records     []models.ImageRecord `json:"records,omitempty"`
}

// StatusReporter is implemented by backends that can describe themselves
type StatusReporter interface {
	Status(ctx context.Context) (*Status, error)
}

// decodeDocument parses a persisted document. Empty or corrupt input yields
// an empty collection; corruption is logged because it means data loss.
func decodeDocument(data []byte, source string, log *logger.Logger) []models.ImageRecord {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []models.ImageRecord{}
	}

	var records []models.ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("record document is corrupt, treating store as empty",
			"source", source,
			"error", err,
		)
		return []models.ImageRecord{}
	}

	if records == nil {
		return []models.ImageRecord{}
	}
	for i := range records {
		if records[i].Tags == nil {
			records[i].Tags = []string{}
		}
		if records[i].Custom == nil {
			records[i].Custom = map[string]any{}
		}
	}
	return records
}

// encodeDocument serializes the collection; a nil slice becomes []
func encodeDocument(records []models.ImageRecord) ([]byte, error) {
	if records == nil {
		records = []models.ImageRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// countRecords is shared by the Status implementations
func countRecords(ctx context.Context, s Store) (int, []models.ImageRecord, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	return len(records), records, nil
}
