// Package datasource defines the minimal contract for input byte sources.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh reader over the input. Implementations must allow
// repeated Open calls; the analyzer, the sampler and the loader each read the
// input from the start.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	ReadHead(ctx context.Context, n int) ([]byte, error)
	BaseName() string
}
