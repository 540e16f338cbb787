// Package objectstore defines the blob storage the pipeline reads raw files
// from and writes reports to. MinioStore talks to any S3-compatible bucket;
// MemoryStore keeps everything in process.
package objectstore

import (
	"context"
)

const ContentTypeCSV = "text/csv"

// Store is a flat key/value blob store.
type Store interface {
	// Get returns the object content or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or overwrites the object at key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object or returns domain.ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// HealthChecker is implemented by stores backed by a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
