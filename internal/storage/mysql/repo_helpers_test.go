package mysql

import (
	"context"
	"strings"
	"testing"

	"carcrash/internal/storage"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	q, args, err := insertSQL("crash.analysis_8", []string{"VEH_MAKE_ID", "count"}, [][]any{
		{"FORD", int64(3)},
		{"TOYOTA", int64(2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "INSERT INTO `crash`.`analysis_8` (`VEH_MAKE_ID`, `count`) VALUES (?, ?), (?, ?)"
	if q != want {
		t.Fatalf("query = %q\nwant    %q", q, want)
	}
	if len(args) != 4 || args[2] != "TOYOTA" {
		t.Fatalf("args = %v", args)
	}

	if _, _, err := insertSQL("t", []string{"a"}, [][]any{{1, 2}}); err == nil || !strings.Contains(err.Error(), "row length 2") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"}); err == nil {
		t.Fatal("want DSN parse error")
	}
}

// TestRegistrationUsesNewRepositoryHook swaps a package var and does not run
// in parallel.
func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mysql",
		DSN:     "user:pass@tcp(localhost:3306)/crash",
		Table:   "analysis_7",
		Columns: []string{"count"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.Table != "analysis_7" {
		t.Errorf("cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not invoke closeFn")
	}
}
