// Package storage contains the backend-agnostic contracts for persisting
// result tables and the registry through which backends plug in.
//
// Backends register a Factory (and a Dialect, see ddl_bootstrap.go) for their
// kind in init; importing carcrash/internal/storage/all enables every
// built-in kind.
package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"carcrash/internal/config"
)

// Repository is the minimal surface a backend offers: bulk inserts into the
// configured table and raw statement execution for DDL.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config describes one destination table.
type Config struct {
	Kind string
	DSN  string

	// Table is the destination name. Database backends treat it as a
	// possibly dotted table name; the csv backend treats it as a path
	// relative to DSN.
	Table   string
	Columns []string

	// Options carries backend-specific settings (SINK.options).
	Options config.Options
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
