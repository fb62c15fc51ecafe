package store

import (
	"context"
	"fmt"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	rediscommon "github.com/lyzr/imagestore/common/redis"
)

var _ Store = (*RedisStore)(nil)
var _ StatusReporter = (*RedisStore)(nil)

// RedisStore keeps the document as one string value. SET replaces the
// value atomically, so readers see either the old or the new document.
type RedisStore struct {
	client *rediscommon.Client
	key    string
	log    *logger.Logger
}

// NewRedisStore creates a store under key
func NewRedisStore(client *rediscommon.Client, key string, log *logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		log:    log,
	}
}

// LoadAll reads the document; an absent key is an empty store
func (s *RedisStore) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	data, found, err := s.client.GetBytes(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if !found {
		return []models.ImageRecord{}, nil
	}
	return decodeDocument(data, "redis:"+s.key, s.log), nil
}

// SaveAll overwrites the document
func (s *RedisStore) SaveAll(ctx context.Context, records []models.ImageRecord) error {
	data, err := encodeDocument(records)
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", models.ErrPersistence, err)
	}

	if err := s.client.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Status reports the key and document size
func (s *RedisStore) Status(ctx context.Context) (*Status, error) {
	count, records, err := countRecords(ctx, s)
	if err != nil {
		return nil, err
	}

	size, err := s.client.StrLen(ctx, s.key)
	if err != nil {
		return nil, err
	}

	return &Status{
		Backend:     "redis",
		Location:    s.key,
		Exists:      size > 0,
		SizeBytes:   size,
		RecordCount: count,
		Records:     records,
	}, nil
}

// Close leaves the shared client open; bootstrap owns its lifecycle
func (s *RedisStore) Close() error {
	return nil
}
