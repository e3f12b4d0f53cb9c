// Package storage is the persistence gateway: a small key-value contract
// with file-system and SQLite backends, plus JSON load/save helpers.
package storage

import "context"

// Keys of the three persisted aggregates.
const (
	KeyPlans   = "plans"
	KeyHistory = "history"
	KeyConfig  = "config"
)

// Gateway is the durable key-value store behind the diet store.
// Writes overwrite the previous value (last write wins).
type Gateway interface {
	// Get returns the raw value stored under key, or apperr.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
	// Close releases backend resources.
	Close() error
}
