package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by Exists when no object is stored under the key
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectStore defines the durable byte storage used by the upload pipeline
type ObjectStore interface {
	// PresignPut creates a URL that allows a single PUT of objectKey with the given content type
	// until the expiry elapses.
	PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error)

	// Put writes size bytes from reader under objectKey
	Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error

	// Exists probes objectKey. It returns ErrObjectNotFound when the object is missing.
	Exists(ctx context.Context, objectKey string) error

	// Delete removes objectKey
	Delete(ctx context.Context, objectKey string) error

	// PublicURL returns the readable address of objectKey
	PublicURL(objectKey string) string

	// Bucket returns the bucket all keys live in
	Bucket() string
}

// publicURL joins a base URL and an object key
func publicURL(baseURL, objectKey string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(objectKey, "/")
}
