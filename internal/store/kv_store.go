package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no value.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is a small string key/value store for client-local state
// such as the persisted session.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
