// This adapter wires the MSSQL backend into the storage-agnostic factory.
package mssql

import (
	"context"

	"carcrash/internal/storage"
	mssqlddl "carcrash/internal/storage/mssql/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

// Dialect renders T-SQL DDL for result schemas.
var Dialect = storage.Dialect{
	MapType: mssqlddl.MapType,
	Create:  mssqlddl.BuildCreateTableSQL,
	Drop:    mssqlddl.BuildDropTableSQL,
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("mssql", Dialect.Bootstrap)
}

// wrappedRepo adapts *mssql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
