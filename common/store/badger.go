package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

var _ Store = (*BadgerStore)(nil)
var _ StatusReporter = (*BadgerStore)(nil)

const badgerDocumentKey = "images"

// BadgerStore keeps the document under a single key of an embedded badger
// database. Each SaveAll is one badger transaction.
type BadgerStore struct {
	db       *badger.DB
	location string
	log      *logger.Logger
}

// NewBadgerStore opens (or creates) a badger database in dir. An empty dir
// opens an in-memory database.
func NewBadgerStore(dir string, log *logger.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // badger is noisy at info level

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	location := dir
	if location == "" {
		location = "in-memory"
	}

	return &BadgerStore{
		db:       db,
		location: location,
		log:      log,
	}, nil
}

// LoadAll reads the document; an absent key is an empty store
func (s *BadgerStore) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerDocumentKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []models.ImageRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	return decodeDocument(data, "badger:"+s.location, s.log), nil
}

// SaveAll replaces the document in one transaction
func (s *BadgerStore) SaveAll(ctx context.Context, records []models.ImageRecord) error {
	data, err := encodeDocument(records)
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", models.ErrPersistence, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerDocumentKey), data)
	})
	if err != nil {
		return fmt.Errorf("%w: badger update: %w", models.ErrPersistence, err)
	}
	return nil
}

// Status reports the database location
func (s *BadgerStore) Status(ctx context.Context) (*Status, error) {
	count, records, err := countRecords(ctx, s)
	if err != nil {
		return nil, err
	}

	lsm, vlog := s.db.Size()
	return &Status{
		Backend:     "badger",
		Location:    s.location,
		Exists:      count > 0,
		SizeBytes:   lsm + vlog,
		RecordCount: count,
		Records:     records,
	}, nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
