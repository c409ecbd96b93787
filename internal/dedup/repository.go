package dedup

import (
	"context"
	"fmt"
	"time"
)

// Message is one processed message record. Records are append-only: written
// once when a frame is first seen, never updated or deleted.
type Message struct {
	ID          int64
	Timestamp   time.Time
	Sender      string
	Body        string
	AckID       string
	Fingerprint string
}

// Repository is the durable store of processed messages.
type Repository interface {
	// Has reports whether a record with the fingerprint already exists.
	Has(ctx context.Context, fingerprint string) (bool, error)
	// Record appends a processed message and returns its assigned ID.
	Record(ctx context.Context, msg Message) (int64, error)
	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// StorageError wraps any repository failure. Storage errors are fatal to the
// process: without the store the bridge cannot tell a new message from a
// replay, and publishing unrecorded messages risks duplicates.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("dedup storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) IsFatal() bool { return true }
