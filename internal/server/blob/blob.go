// Package blob abstracts content storage: bytes go in under an opaque key,
// come back out as a stream, and can be deleted. Metadata lives elsewhere.
package blob

import (
	"context"
	"io"
)

// Store is the blob-store contract used by the vault. Store returns the key
// the content was written under; Read returns common.ErrorNotFound when the
// key does not resolve.
type Store interface {
	Store(ctx context.Context, r io.Reader, name string, contentType string) (string, error)
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
