package storage

import (
	"context"
	"io"
)

type PutResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore is the bucket the service publishes read-only snapshots into.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, reader io.Reader) (*PutResult, error)

	PublicURL(key string) string
}
