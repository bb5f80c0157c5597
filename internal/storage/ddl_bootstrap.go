package storage

import (
	"context"
	"fmt"
	"sync"

	"carcrash/internal/ddl"
	"carcrash/internal/table"
)

// DDLBootstrapper prepares the destination table for a result schema via
// repo.Exec. When replace is set an existing table is dropped first.
type DDLBootstrapper func(ctx context.Context, repo Repository, fqn string, schema *table.Schema, replace bool) error

// Dialect bundles the DDL rendering of one SQL backend.
type Dialect struct {
	MapType ddl.TypeMapper
	Create  func(ddl.TableDef) (string, error)
	Drop    func(fqn string) (string, error)
}

// Bootstrap is the DDLBootstrapper shared by the SQL backends.
func (d Dialect) Bootstrap(ctx context.Context, repo Repository, fqn string, schema *table.Schema, replace bool) error {
	def, err := ddl.FromSchema(fqn, schema, d.MapType)
	if err != nil {
		return fmt.Errorf("table definition: %w", err)
	}
	if replace {
		drop, err := d.Drop(fqn)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", fqn, err)
		}
	}
	create, err := d.Create(def)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", fqn, err)
	}
	return nil
}

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind. It is
// typically called from backend packages' init functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for kind and invokes it.
func EnsureTable(ctx context.Context, kind string, repo Repository, fqn string, schema *table.Schema, replace bool) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, fqn, schema, replace)
}
