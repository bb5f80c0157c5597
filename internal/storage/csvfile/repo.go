// Package csvfile implements a storage.Repository that writes each result
// table to a CSV file under the sink DSN directory, optionally lz4-framed.
//
// The destination is taken as a path relative to DSN; ".csv" is appended when
// it has no extension and ".lz4" when compressed. The header row is written
// by the DDL bootstrapper, so a file always starts with the schema's columns.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"carcrash/internal/storage"
	"carcrash/internal/table"

	"github.com/pierrec/lz4/v4"
)

// Compression names accepted in SINK.options.compression.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
)

// Config holds csv repository configuration derived from storage.Config.
type Config struct {
	Dir         string
	Table       string
	Comma       rune
	Compression string
}

// Repository writes rows to one CSV file. It is not safe for concurrent use.
type Repository struct {
	cfg  Config
	path string

	f  *os.File
	zw *lz4.Writer
	w  *csv.Writer
}

// NewRepository validates cfg and resolves the file path. The file is opened
// by Prepare.
func NewRepository(cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, errors.New("csv: destination must not be empty")
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	switch cfg.Compression {
	case "", CompressionNone:
		cfg.Compression = CompressionNone
	case CompressionLZ4:
	default:
		return nil, fmt.Errorf("csv: unsupported compression %q", cfg.Compression)
	}
	return &Repository{cfg: cfg, path: Path(cfg)}, nil
}

// Path returns the file a Config writes to.
func Path(cfg Config) string {
	p := filepath.Join(cfg.Dir, filepath.FromSlash(cfg.Table))
	if filepath.Ext(p) == "" {
		p += ".csv"
	}
	if cfg.Compression == CompressionLZ4 {
		p += ".lz4"
	}
	return p
}

// Path returns the file this repository writes to.
func (r *Repository) Path() string { return r.path }

// Prepare opens the file and writes the header. With replace the file is
// truncated; otherwise rows are appended and the header is written only to a
// new or empty file. Appending to an lz4 file is not supported.
func (r *Repository) Prepare(columns []string, replace bool) error {
	if r.w != nil {
		return errors.New("csv: already prepared")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	flags := os.O_CREATE | os.O_WRONLY
	if replace {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(r.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: %w", err)
	}
	fresh := st.Size() == 0
	if !fresh && r.cfg.Compression == CompressionLZ4 {
		_ = f.Close()
		return fmt.Errorf("csv: cannot append to compressed file %s", r.path)
	}

	r.f = f
	var out io.Writer = f
	if r.cfg.Compression == CompressionLZ4 {
		r.zw = lz4.NewWriter(f)
		out = r.zw
	}
	r.w = csv.NewWriter(out)
	r.w.Comma = r.cfg.Comma
	if fresh {
		if err := r.w.Write(columns); err != nil {
			return fmt.Errorf("csv: header: %w", err)
		}
	}
	return nil
}

// CopyFrom appends rows. Null cells are written as empty fields.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if r.w == nil {
		return 0, errors.New("csv: CopyFrom before Prepare")
	}
	rec := make([]string, len(columns))
	var n int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(row) != len(columns) {
			return n, fmt.Errorf("csv: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			rec[i] = format(v)
		}
		if err := r.w.Write(rec); err != nil {
			return n, fmt.Errorf("csv: %w", err)
		}
		n++
	}
	r.w.Flush()
	return n, r.w.Error()
}

// Exec is not meaningful for files.
func (r *Repository) Exec(context.Context, string) error {
	return errors.New("csv: Exec not supported")
}

// Close flushes and closes the file.
func (r *Repository) Close() { _ = r.close() }

func (r *Repository) close() error {
	if r.f == nil {
		return nil
	}
	r.w.Flush()
	err := r.w.Error()
	if r.zw != nil {
		if cerr := r.zw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	r.f, r.zw, r.w = nil, nil, nil
	return err
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func bootstrap(_ context.Context, repo storage.Repository, _ string, schema *table.Schema, replace bool) error {
	r, ok := repo.(*Repository)
	if !ok {
		return fmt.Errorf("csv: unexpected repository %T", repo)
	}
	return r.Prepare(schema.Names(), replace)
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		opts := cfg.Options
		return NewRepository(Config{
			Dir:         cfg.DSN,
			Table:       cfg.Table,
			Comma:       opts.Rune("comma", ','),
			Compression: opts.String("compression", CompressionNone),
		})
	})
	storage.RegisterDDL("csv", bootstrap)
}
