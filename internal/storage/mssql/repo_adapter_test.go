package mssql

import (
	"context"
	"testing"

	"carcrash/internal/storage"
)

// TestRegistrationUsesNewRepositoryHook swaps a package var and does not run
// in parallel.
func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotCfg   Config
		closed   bool
		fakeRepo = &Repository{}
	)
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mssql",
		DSN:     "sqlserver://example",
		Table:   "dbo.analysis_6",
		Columns: []string{"DRVR_ZIP", "count"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.DSN != "sqlserver://example" || gotCfg.Table != "dbo.analysis_6" || len(gotCfg.Columns) != 2 {
		t.Errorf("cfg = %+v", gotCfg)
	}
	w, ok := repo.(*wrappedRepo)
	if !ok || w.Repository != fakeRepo {
		t.Fatalf("storage.New() = %T", repo)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not invoke closeFn")
	}
}
