// Package file implements a local filesystem-backed data source.
package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the filesystem path the source is bound to.
func (l *Local) Path() string { return l.path }

// BaseName returns the file name without directory and extension, e.g.
// "customers" for "/data/customers.csv".
func (l *Local) BaseName() string {
	base := filepath.Base(l.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Otherwise, Open attempts to open the underlying file and returns the
//     resulting *os.File as an io.ReadCloser.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ReadHead returns up to n leading bytes of the file. A file shorter than n
// yields the whole file; the result length is always <= n.
func (l *Local) ReadHead(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("file: n must be > 0")
	}
	rc, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lr := &io.LimitedReader{R: rc, N: int64(n)}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(lr); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return buf.Bytes(), nil
}
