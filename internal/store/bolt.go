package store

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore is a Store backed by a bbolt database file. Values live in a
// single bucket named after the namespace. SetInt32 stages writes in memory;
// Commit flushes them in one transaction, so a half-written pair of
// calibration values can never become durable.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte

	mu      sync.Mutex
	pending map[string]int32
}

// OpenBolt opens (creating if needed) the database at path and ensures the
// namespace bucket exists.
func OpenBolt(path, namespace string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	bucket := []byte(namespace)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", namespace, err)
	}

	return &BoltStore{
		db:      db,
		bucket:  bucket,
		pending: make(map[string]int32),
	}, nil
}

// GetInt32 returns the staged value for key if one exists, otherwise the
// committed value. Returns ErrNotFound for unknown keys.
func (s *BoltStore) GetInt32(key string) (int32, error) {
	s.mu.Lock()
	v, staged := s.pending[key]
	s.mu.Unlock()
	if staged {
		return v, nil
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(s.bucket).Get([]byte(key)); b != nil {
			raw = append([]byte(nil), b...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	if raw == nil {
		return 0, ErrNotFound
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("get %s: corrupt value (%d bytes)", key, len(raw))
	}
	return int32(binary.LittleEndian.Uint32(raw)), nil
}

// SetInt32 stages a value for key.
func (s *BoltStore) SetInt32(key string, value int32) error {
	s.mu.Lock()
	s.pending[key] = value
	s.mu.Unlock()
	return nil
}

// Commit writes all staged values in a single transaction. On success the
// staging area is cleared; on failure it is kept so a later Commit can retry.
func (s *BoltStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for key, value := range s.pending {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(value))
			if err := b.Put([]byte(key), buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.pending = make(map[string]int32)
	return nil
}

// Close closes the underlying database. Staged writes are discarded.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
