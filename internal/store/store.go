// Package store persists JSON blobs under string keys for a single origin.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// KV is the durable key-value medium behind the Adapter. Implementations are
// scoped to one origin chosen at construction.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
