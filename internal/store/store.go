// Package store defines the key-value contract the monitor depends on: plain
// keys with optional expiry, plus capped most-recent-first lists for the
// rolling history logs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for absent or expired keys.
var ErrNotFound = errors.New("store: key not found")

// Store is the only durable state the monitor touches. Writes are idempotent
// upserts, so overlapping runs racing on the same key converge without
// locking.
type Store interface {
	// Get unmarshals the value at key into dest. Expired entries read as
	// absent.
	Get(ctx context.Context, key string, dest any) error

	// Set upserts key with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// PushToList prepends value to the named list.
	PushToList(ctx context.Context, listKey string, value any) error

	// TrimList keeps only positions [start, stop] of the list, counted from
	// the most recent entry.
	TrimList(ctx context.Context, listKey string, start, stop int) error

	// List returns raw entries in positions [start, stop], most recent first.
	List(ctx context.Context, listKey string, start, stop int) ([]json.RawMessage, error)
}
