package storage

import (
	"context"
	"fmt"
)

// Keys of the logical records kept in the store
const (
	KeyBooks         = "books"
	KeyDailyProgress = "daily_reading_progress"
	KeyDailyGoal     = "daily_reading_goal"
)

// Storage defines the interface for the durable key-value store
type Storage interface {
	// Get returns the value stored under key.
	// ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// StorageError reports a failed store operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
