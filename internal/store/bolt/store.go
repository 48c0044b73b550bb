package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/store"
)

var documentsBucket = []byte("Documents")

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

// BoltStore keeps the document in a local bbolt file. The file is locked by
// the process that opens it, so only one binary can use a bolt DSN at a time.
type BoltStore struct {
	db  *bbolt.DB
	key []byte
}

func NewBoltStore(config *store.DBConfig) (*BoltStore, error) {
	path := config.DSN
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("bolt database %s is locked by another process: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, key: []byte(config.Key())}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context) (*models.Document, error) {
	var doc *models.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(documentsBucket).Get(s.key)
		if v == nil {
			return store.ErrNoDocument
		}
		var err error
		doc, err = store.Decode(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BoltStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := store.Encode(doc)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(documentsBucket).Put(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", s.key, err)
	}
	return nil
}
