package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection stores values of type T as JSON documents in a Store.
// Every Put rewrites the whole document.
type Collection[T any] struct {
	store Store
}

// NewCollection wraps store with JSON encoding for T.
func NewCollection[T any](store Store) *Collection[T] {
	return &Collection[T]{store: store}
}

// Store returns the underlying store.
func (c *Collection[T]) Store() Store {
	return c.store
}

// Get decodes the committed value for key. ok is false when the key is absent.
func (c *Collection[T]) Get(ctx context.Context, key string) (v T, ok bool, err error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, errors.Join(ErrCorrupt, fmt.Errorf("decode %s: %w", key, err))
	}
	return v, true, nil
}

// Put encodes v and atomically replaces the value for key.
func (c *Collection[T]) Put(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}
	return c.store.Put(ctx, key, data)
}

// Delete removes key.
func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// List enumerates committed keys without decoding them.
func (c *Collection[T]) List(ctx context.Context) ([]Entry, error) {
	return c.store.List(ctx)
}

// Each decodes every committed value into a fresh D and calls fn with it.
// D may be a partial view of T to avoid decoding fields the caller ignores.
// Entries removed concurrently are skipped; corrupt entries are passed to fn
// with a non-nil error so the caller decides whether to purge them.
func Each[D any](ctx context.Context, store Store, fn func(e Entry, v D, err error) error) error {
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		data, ok, err := store.Get(ctx, e.Key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		var v D
		var decodeErr error
		if err := json.Unmarshal(data, &v); err != nil {
			decodeErr = errors.Join(ErrCorrupt, fmt.Errorf("decode %s: %w", e.Key, err))
		}
		if err := fn(e, v, decodeErr); err != nil {
			return err
		}
	}
	return nil
}
