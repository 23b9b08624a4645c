package objectstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound marks a bucket/key pair with no stored object behind it.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// PutOptions carries optional metadata recorded alongside an object. Remote
// bucket implementations forward ContentType; the filesystem store keeps
// bytes only.
type PutOptions struct {
	ContentType string
}

// Store is the blob store surface the pipeline depends on.
type Store interface {
	// Get returns the full object body. Missing objects return ErrNotFound.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put stores body under bucket/key, replacing any existing object.
	Put(ctx context.Context, bucket, key string, body []byte, opts PutOptions) error
	// Stat reports object metadata without reading the body. Missing objects
	// return ErrNotFound.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
}
