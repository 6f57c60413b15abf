package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type pendingWrite struct {
	value   string
	removed bool
}

// WriteThrough forwards every write to the underlying store immediately.
// A failed write stays queued (latest value per key) and is retried before
// the next write and on Flush, so in-memory state is never lost to a
// transient store failure. Reads see queued values first.
type WriteThrough struct {
	db      Storage
	logger  *zap.Logger
	pending map[string]pendingWrite
	order   []string
}

// NewWriteThrough wraps db
func NewWriteThrough(db Storage, logger *zap.Logger) *WriteThrough {
	return &WriteThrough{
		db:      db,
		logger:  logger,
		pending: make(map[string]pendingWrite),
	}
}

// Initialize initializes the underlying store
func (w *WriteThrough) Initialize(ctx context.Context) error {
	return w.db.Initialize(ctx)
}

// Get returns a queued value if one exists, otherwise reads the store
func (w *WriteThrough) Get(ctx context.Context, key string) (string, bool, error) {
	if p, ok := w.pending[key]; ok {
		if p.removed {
			return "", false, nil
		}
		return p.value, true, nil
	}
	value, ok, err := w.db.Get(ctx, key)
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	return value, ok, nil
}

// Set queues the value for key and flushes
func (w *WriteThrough) Set(ctx context.Context, key, value string) error {
	w.enqueue(key, pendingWrite{value: value})
	return w.Flush(ctx)
}

// Remove queues the removal of key and flushes
func (w *WriteThrough) Remove(ctx context.Context, key string) error {
	w.enqueue(key, pendingWrite{removed: true})
	return w.Flush(ctx)
}

func (w *WriteThrough) enqueue(key string, p pendingWrite) {
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = p
}

// Flush writes every queued value in the order it was first queued.
// Writes that fail stay queued; the joined errors are returned.
func (w *WriteThrough) Flush(ctx context.Context) error {
	var errs []error
	remaining := w.order[:0]
	for _, key := range w.order {
		p := w.pending[key]
		var err error
		op := "set"
		if p.removed {
			op = "remove"
			err = w.db.Remove(ctx, key)
		} else {
			err = w.db.Set(ctx, key, p.value)
		}
		if err != nil {
			w.logger.Warn("Store write failed, keeping it queued",
				zap.String("key", key),
				zap.String("op", op),
				zap.Error(err),
			)
			errs = append(errs, &StorageError{Op: op, Key: key, Err: err})
			remaining = append(remaining, key)
			continue
		}
		delete(w.pending, key)
	}
	w.order = remaining
	return errors.Join(errs...)
}

// Pending returns the number of keys waiting to be written
func (w *WriteThrough) Pending() int {
	return len(w.pending)
}

// Close flushes what it can and closes the underlying store
func (w *WriteThrough) Close() error {
	if len(w.pending) > 0 {
		if err := w.Flush(context.Background()); err != nil {
			w.logger.Error("Unwritten changes lost on close",
				zap.Int("pending", len(w.pending)),
				zap.Error(err),
			)
		}
	}
	return w.db.Close()
}
