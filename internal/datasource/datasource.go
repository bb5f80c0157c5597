// Package datasource defines where raw crash tables are read from. The loader
// only sees an io.ReadCloser; concrete sources live in subpackages.
package datasource

import (
	"context"
	"io"
)

// Source opens one dataset for a single sequential read.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and errors (a path or URL).
	Name() string
}
