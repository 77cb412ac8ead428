package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when nothing has been written under the
// requested key.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
