// Package store provides persistent integer key/value storage for device
// calibration, modelled on NVS-style get/set/commit semantics: writes are
// staged in memory and only made durable by Commit.
package store

import "errors"

// ErrNotFound is returned by GetInt32 when the key has never been committed.
var ErrNotFound = errors.New("store: key not found")

// Store reads and writes int32 values under string keys.
type Store interface {
	// GetInt32 returns the value for key. Staged (uncommitted) writes are
	// visible to the writer. Returns ErrNotFound for unknown keys.
	GetInt32(key string) (int32, error)

	// SetInt32 stages a value for key. The value is not durable until Commit.
	SetInt32(key string, value int32) error

	// Commit makes all staged writes durable as a single atomic unit.
	Commit() error

	// Close releases storage resources. Staged, uncommitted writes are lost.
	Close() error
}
