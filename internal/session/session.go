// Package session is the catalog of one analysis run: it resolves dataset
// names to sources, loads each base table at most once and hands result
// tables to the configured sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"carcrash/internal/datasource"
	"carcrash/internal/datasource/file"
	"carcrash/internal/datasource/httpds"
	"carcrash/internal/metrics"
	"carcrash/internal/parser/csv"
	"carcrash/internal/table"
	"carcrash/internal/transformer/builtin"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrNotConfigured is returned for a dataset that has no INPUT entry.
var ErrNotConfigured = errors.New("dataset not configured")

// Writer persists result tables.
type Writer interface {
	Write(ctx context.Context, t *table.Table, destination string) error
}

// Config describes where datasets live and how they are parsed.
type Config struct {
	// Inputs maps a dataset name to a file path or an http(s) URL.
	Inputs map[string]string

	Loader csv.Options
	HTTP   httpds.Config

	// Dedup, keyed by dataset name, collapses duplicate rows after loading.
	Dedup map[string]builtin.DeDup

	// Job labels metrics.
	Job string

	// RunID identifies the run in logs and metrics. Generated when empty.
	RunID string
}

// Session loads datasets lazily and caches them for the rest of the run.
// Cached tables are immutable and shared by all callers.
type Session struct {
	cfg  Config
	sink Writer

	group singleflight.Group

	mu     sync.RWMutex
	tables map[string]*table.Table
}

// New returns a Session. sink may be nil when results are not persisted.
func New(cfg Config, sink Writer) *Session {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	cfg.Inputs = maps.Clone(cfg.Inputs)
	cfg.Dedup = maps.Clone(cfg.Dedup)
	return &Session{cfg: cfg, sink: sink, tables: map[string]*table.Table{}}
}

// RunID returns the run identifier.
func (s *Session) RunID() string { return s.cfg.RunID }

// Dataset returns the base table for name, loading it on first use.
// Concurrent callers asking for the same dataset share one load. A failed
// load is not cached.
func (s *Session) Dataset(ctx context.Context, name string) (*table.Table, error) {
	if t, ok := s.cached(name); ok {
		return t, nil
	}
	v, err, _ := s.group.Do(name, func() (any, error) {
		if t, ok := s.cached(name); ok {
			return t, nil
		}
		t, err := s.load(ctx, name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.tables[name] = t
		s.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*table.Table), nil
}

// Preload loads names concurrently and returns the first error.
func (s *Session) Preload(ctx context.Context, names []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			_, err := s.Dataset(gctx, name)
			return err
		})
	}
	return g.Wait()
}

// Unused returns the configured datasets that are not in needed, sorted.
func (s *Session) Unused(needed []string) []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(s.cfg.Inputs)) {
		if !slices.Contains(needed, name) {
			out = append(out, name)
		}
	}
	return out
}

// Write hands t to the sink.
func (s *Session) Write(ctx context.Context, t *table.Table, destination string) error {
	if s.sink == nil {
		return errors.New("session: no sink configured")
	}
	start := time.Now()
	err := s.sink.Write(ctx, t, destination)
	metrics.RecordStep(s.cfg.Job, "write", err, time.Since(start))
	if err == nil {
		metrics.RecordRows(s.cfg.Job, "written", int64(t.Len()))
	}
	return err
}

func (s *Session) cached(name string) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

func (s *Session) load(ctx context.Context, name string) (t *table.Table, err error) {
	loc, ok := s.cfg.Inputs[name]
	if !ok || strings.TrimSpace(loc) == "" {
		return nil, fmt.Errorf("dataset %q: %w", name, ErrNotConfigured)
	}

	start := time.Now()
	defer func() {
		metrics.RecordStep(s.cfg.Job, "load:"+name, err, time.Since(start))
	}()

	opt := s.cfg.Loader
	opt.Source = name
	t, err = csv.LoadSource(ctx, s.source(loc), opt)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	metrics.RecordRows(s.cfg.Job, "loaded", int64(t.Len()))

	if d, ok := s.cfg.Dedup[name]; ok {
		before := t.Len()
		if t, err = d.Apply(t); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		slog.Debug("session: duplicates removed",
			"component", "session",
			"dataset", name,
			"rule", d.String(),
			"removed", before-t.Len(),
		)
	}

	slog.Info("session: dataset loaded",
		"component", "session",
		"run_id", s.cfg.RunID,
		"dataset", name,
		"location", loc,
		"rows", t.Len(),
		"columns", t.Schema().Len(),
		"elapsed", time.Since(start),
	)
	return t, nil
}

func (s *Session) source(loc string) datasource.Source {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return httpds.NewRemote(loc, s.cfg.HTTP)
	}
	return file.NewLocal(loc)
}
