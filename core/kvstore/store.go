package kvstore

import (
	"context"
	"time"
)

// Store is a flat map from string keys to serialized records.
//
// Put must be atomic from any reader's point of view: a concurrent or crashed
// writer never leaves a partially written value visible to Get. Get returns
// the last fully committed value, or ok == false when the key is absent;
// absence is never an error.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List enumerates committed entries without reading their contents.
	List(ctx context.Context) ([]Entry, error)
	// Ping reports whether the backing medium is usable.
	Ping(ctx context.Context) error
}

// Entry is a lightweight view of a committed value.
type Entry struct {
	Key     string
	ModTime time.Time
}
