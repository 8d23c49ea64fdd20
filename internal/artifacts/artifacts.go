// Package artifacts stores uploaded model artifacts in object storage.
// Endpoint deployments upload a bundle here and record the returned key.
package artifacts

import (
	"context"
	"io"
)

type Storage interface {
	// Upload writes the artifact stream under a key derived from the
	// endpoint id and returns that key.
	Upload(ctx context.Context, endpointID, filename string, body io.Reader) (string, error)

	// Download streams an artifact back. Callers close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error
}
