// Package store persists rows accepted by the ingest server in a bbolt file.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
)

// OpenTimeout bounds the wait for the file lock held by another process.
const OpenTimeout = time.Second

var rowsBucket = []byte("rows")

// errStop ends an iteration early without reporting an error.
var errStop = errors.New("stop")

// Store is an append-only row log keyed by insertion sequence.
type Store struct {
	db   *bbolt.DB
	path string
}

// Open creates or reopens the store at path. It fails after OpenTimeout when another
// handle holds the file.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rowsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores records in one transaction, so a batch is kept whole or not at all.
func (s *Store) Append(records []core.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(rowsBucket)
		for _, rec := range records {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			encoded, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(key(seq), encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored rows.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(rowsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Each calls fn for stored rows in insertion order, at most limit of them when limit > 0.
func (s *Store) Each(limit int, fn func(seq uint64, rec core.Record) error) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(rowsBucket).Cursor()
		seen := 0
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if limit > 0 && seen == limit {
				return errStop
			}
			var rec core.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("row %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if err := fn(binary.BigEndian.Uint64(k), rec); err != nil {
				return err
			}
			seen++
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func key(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
