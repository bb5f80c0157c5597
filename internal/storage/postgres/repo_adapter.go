// This adapter registers the Postgres backend with the storage factory and
// its DDL dialect, so callers reach it through storage.New and
// storage.EnsureTable by kind alone.
package postgres

import (
	"context"

	"carcrash/internal/storage"
	pgddl "carcrash/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo delegates to *Repository and closes through the function
// returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Dialect renders Postgres DDL for result schemas.
var Dialect = storage.Dialect{
	MapType: pgddl.MapType,
	Create:  pgddl.BuildCreateTableSQL,
	Drop:    pgddl.BuildDropTableSQL,
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("postgres", Dialect.Bootstrap)
}
