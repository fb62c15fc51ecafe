package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lyzr/imagestore/common/db"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

var _ Store = (*PostgresStore)(nil)
var _ StatusReporter = (*PostgresStore)(nil)

const postgresDocumentName = "images"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS image_store (
	name       TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the document as one JSONB row. Saves are a single
// upsert statement.
type PostgresStore struct {
	db  *db.DB
	log *logger.Logger
}

// NewPostgresStore ensures the table exists
func NewPostgresStore(ctx context.Context, database *db.DB, log *logger.Logger) (*PostgresStore, error) {
	if _, err := database.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create image_store table: %w", err)
	}
	return &PostgresStore{db: database, log: log}, nil
}

// LoadAll reads the document row; a missing row is an empty store
func (s *PostgresStore) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT document FROM image_store WHERE name = $1`,
		postgresDocumentName,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.ImageRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	return decodeDocument(data, "postgres:image_store", s.log), nil
}

// SaveAll upserts the document row
func (s *PostgresStore) SaveAll(ctx context.Context, records []models.ImageRecord) error {
	data, err := encodeDocument(records)
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", models.ErrPersistence, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO image_store (name, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		postgresDocumentName, data,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert document: %w", models.ErrPersistence, err)
	}
	return nil
}

// Status reports row size and last update
func (s *PostgresStore) Status(ctx context.Context) (*Status, error) {
	count, records, err := countRecords(ctx, s)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Backend:     "postgres",
		Location:    "image_store/" + postgresDocumentName,
		RecordCount: count,
		Records:     records,
	}

	var size int64
	var updatedAt time.Time
	err = s.db.QueryRow(ctx,
		`SELECT octet_length(document::text), updated_at FROM image_store WHERE name = $1`,
		postgresDocumentName,
	).Scan(&size, &updatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to read store status: %w", err)
	default:
		status.Exists = true
		status.SizeBytes = size
		status.ModifiedAt = &updatedAt
	}

	return status, nil
}

// Close leaves the pool open; bootstrap owns it
func (s *PostgresStore) Close() error {
	return nil
}
