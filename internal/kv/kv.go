// Package kv defines the local key-value persistence used by the expense
// store, together with in-memory and single-file implementations.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store persists opaque values under string keys. Set overwrites whatever
// was stored before.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
