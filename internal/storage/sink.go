package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"carcrash/internal/config"
	"carcrash/internal/table"

	"golang.org/x/sync/errgroup"
)

// SinkConfig selects the backend that receives result tables.
type SinkConfig struct {
	Kind      string
	DSN       string
	BatchSize int
	Replace   bool
	Options   config.Options

	// Job labels metrics.
	Job string
}

// Sink writes whole result tables to a registered backend. One Repository is
// opened per destination and closed when the write completes.
type Sink struct {
	cfg SinkConfig
}

// NewSink validates cfg against the registered backends.
func NewSink(cfg SinkConfig) (*Sink, error) {
	if !slices.Contains(ListKinds(), cfg.Kind) {
		return nil, fmt.Errorf("unsupported storage.kind=%s (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.DefaultBatchSize
	}
	return &Sink{cfg: cfg}, nil
}

// Write persists t under destination, creating (or replacing) the target
// table from t's schema first.
func (s *Sink) Write(ctx context.Context, t *table.Table, destination string) error {
	name := TableName(s.cfg.Kind, destination)
	if name == "" {
		return fmt.Errorf("storage: empty destination")
	}
	columns := t.Schema().Names()

	repo, err := New(ctx, Config{
		Kind:    s.cfg.Kind,
		DSN:     s.cfg.DSN,
		Table:   name,
		Columns: columns,
		Options: s.cfg.Options,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.cfg.Kind, err)
	}
	defer repo.Close()

	if err := EnsureTable(ctx, s.cfg.Kind, repo, name, t.Schema(), s.cfg.Replace); err != nil {
		return err
	}

	start := time.Now()
	rows := make(chan []any, s.cfg.BatchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		width := t.Schema().Len()
		for i := range t.Len() {
			row := make([]any, width)
			for c := range width {
				row[c] = t.Value(i, c).Any()
			}
			select {
			case rows <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	var inserted int64
	g.Go(func() error {
		n, err := LoadBatches(gctx, s.cfg.Job, columns, rows, s.cfg.BatchSize, repo.CopyFrom)
		inserted = n
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("sink: table written",
		"component", "sink",
		"kind", s.cfg.Kind,
		"destination", name,
		"rows", inserted,
		"elapsed", time.Since(start),
	)
	return nil
}

// TableName maps an OUTPUT destination to the backend's table name. The csv
// backend takes the destination verbatim. Database backends use it as-is when
// it is a bare (possibly dotted) name; a path is reduced to its base name
// without extension, with characters outside [A-Za-z0-9_] replaced by '_'.
func TableName(kind, destination string) string {
	destination = strings.TrimSpace(destination)
	if kind == "csv" || destination == "" {
		return destination
	}
	slashed := filepath.ToSlash(destination)
	if !strings.Contains(slashed, "/") {
		return destination
	}
	base := path.Base(slashed)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, base)
}
