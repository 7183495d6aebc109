// Package store holds the client's storage layers: the in-memory snapshot
// cache and a small bbolt-backed key-value file for client preferences.
//
// Buckets in the KV file:
//
//	prefs  user-facing keys (last location, debug flag, error log)
//	_meta  schema version, created_at
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const schemaVersion = 1

var (
	bucketPrefs    = []byte("prefs")
	bucketInternal = []byte("_meta")
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store is closed")

// KV wraps a bbolt database holding string values under string keys.
type KV struct {
	db *bolt.DB
}

// OpenKV opens (or creates) the database at path, creating parent
// directories as needed.
func OpenKV(path string) (*KV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	kv := &KV{db: db}
	if err := kv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return kv, nil
}

// Close closes the database.
func (s *KV) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *KV) Path() string {
	return s.db.Path()
}

func (s *KV) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketPrefs, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns (value, true, nil) if key exists and ("", false, nil) if not.
func (s *KV) Get(key string) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPrefs).Get([]byte(key))
		if v == nil {
			return nil
		}
		val, found = string(v), true
		return nil
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return "", false, ErrClosed
	}
	return val, found, err
}

// Put stores value under key.
func (s *KV) Put(key, value string) error {
	return s.Update(key, func([]byte) ([]byte, error) {
		return []byte(value), nil
	})
}

// Update performs an atomic read-modify-write of key. fn receives the
// current value (nil if absent); returning nil bytes deletes the key.
func (s *KV) Update(key string, fn func(old []byte) ([]byte, error)) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		var old []byte
		if v := b.Get([]byte(key)); v != nil {
			old = append([]byte(nil), v...)
		}
		next, err := fn(old)
		if err != nil {
			return err
		}
		if next == nil {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), next)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// Delete removes key. Missing keys are not an error.
func (s *KV) Delete(key string) error {
	return s.Update(key, func([]byte) ([]byte, error) { return nil, nil })
}
