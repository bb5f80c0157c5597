// Package csv loads delimited text with a header row into a typed
// table.Table.
//
// Column types are decided globally: every row is buffered, then each column
// is inferred from all of its non-empty values before any value is converted.
// An empty field is Null whatever the column type. A row whose field count
// differs from the header is a *table.MalformedInputError carrying the line.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"carcrash/internal/datasource"
	"carcrash/internal/datasource/file"
	"carcrash/internal/table"
)

// Options configures the loader. The zero value reads comma-separated input
// with headers used verbatim and no boolean encoding.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field before
	// inference, so a whitespace-only field becomes Null.
	TrimSpace bool

	// NormalizeHeaders maps header names through NormalizeFieldName.
	NormalizeHeaders bool

	// Truthy and Falsy define an explicit boolean encoding. Both must be set
	// for Boolean inference to happen.
	Truthy []string
	Falsy  []string

	// Source names the input in errors and logs.
	Source string
}

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 4096

// Load reads r exactly once and returns the inferred table.
func Load(ctx context.Context, r io.Reader, opt Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	// Width is enforced below so the error can carry both counts.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &table.MalformedInputError{Source: opt.Source, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, malformed(opt.Source, 1, err)
	}
	names := columnNames(header, opt)
	width := len(names)

	bools := newBoolTokens(opt.Truthy, opt.Falsy)
	stats := make([]columnStats, width)
	for i := range stats {
		stats[i] = newColumnStats(bools)
	}

	var raw [][]string
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(opt.Source, 0, err)
		}
		if len(rec) != width {
			line, _ := cr.FieldPos(0)
			return nil, &table.MalformedInputError{Source: opt.Source, Line: line, Want: width, Got: len(rec)}
		}
		for i, f := range rec {
			if opt.TrimSpace {
				f = strings.TrimSpace(f)
				rec[i] = f
			}
			if f != "" {
				stats[i].observe(f, bools)
			}
		}
		raw = append(raw, rec)
	}

	cols := make([]table.Column, width)
	for i, name := range names {
		cols[i] = table.Column{Name: name, Type: stats[i].resolve()}
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, fmt.Errorf("load %s: header: %w", opt.Source, err)
	}

	b := table.NewBuilder(schema, len(raw))
	for n, rec := range raw {
		vals := make([]table.Value, width)
		for i, f := range rec {
			if f != "" {
				vals[i] = convert(f, cols[i].Type, bools)
			}
		}
		if err := b.Append(vals...); err != nil {
			return nil, fmt.Errorf("load %s: row %d: %w", opt.Source, n+2, err)
		}
		raw[n] = nil
	}
	t := b.Build()

	slog.Debug("csv: loaded",
		"component", "loader",
		"source", opt.Source,
		"rows", t.Len(),
		"schema", schema.String(),
	)
	return t, nil
}

// LoadSource opens src, loads it and closes it.
func LoadSource(ctx context.Context, src datasource.Source, opt Options) (*table.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if opt.Source == "" {
		opt.Source = src.Name()
	}
	return Load(ctx, rc, opt)
}

// LoadFile loads the file at path.
func LoadFile(ctx context.Context, path string, opt Options) (*table.Table, error) {
	return LoadSource(ctx, file.NewLocal(path), opt)
}

func malformed(source string, line int, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.StartLine
	}
	return &table.MalformedInputError{Source: source, Line: line, Err: err}
}
