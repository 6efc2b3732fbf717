// Package storage holds the blob sinks that collection snapshots are
// written to.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// Sink stores and returns snapshot objects by key.
type Sink interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Name labels the sink in logs and metrics.
	Name() string
}
