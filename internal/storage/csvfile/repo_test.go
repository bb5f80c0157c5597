package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carcrash/internal/config"
	"carcrash/internal/storage"
	"carcrash/internal/table"

	"github.com/pierrec/lz4/v4"
)

func makeResult(t *testing.T) *table.Table {
	t.Helper()
	s := table.MustSchema(
		table.Column{Name: "DRVR_ZIP", Type: table.TypeText},
		table.Column{Name: "count", Type: table.TypeInteger},
	)
	tb, err := table.New(s, [][]table.Value{
		{table.Text("76010"), table.Int(2)},
		{table.Text("73101, OK"), table.Int(1)},
		{table.Null(), table.Int(1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

func readAll(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	recs, err := csv.NewReader(r).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return recs
}

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Dir: "out", Table: "analysis_1"}, filepath.Join("out", "analysis_1.csv")},
		{Config{Dir: "out", Table: "a/b.txt"}, filepath.Join("out", "a", "b.txt")},
		{Config{Dir: ".", Table: "analysis_2", Compression: CompressionLZ4}, "analysis_2.csv.lz4"},
	}
	for _, tt := range tests {
		if got := Path(tt.cfg); got != tt.want {
			t.Errorf("Path(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestNewRepository_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(Config{}); err == nil {
		t.Error("want error for empty destination")
	}
	if _, err := NewRepository(Config{Table: "t", Compression: "zstd"}); err == nil {
		t.Error("want error for unknown compression")
	}
	r, err := NewRepository(Config{Table: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.CopyFrom(context.Background(), []string{"a"}, [][]any{{"x"}}); err == nil {
		t.Error("want error before Prepare")
	}
	if err := r.Exec(context.Background(), "DROP TABLE t"); err == nil {
		t.Error("want error from Exec")
	}
}

func TestSinkWritesCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := storage.NewSink(storage.SinkConfig{Kind: "csv", DSN: dir, BatchSize: 2, Replace: true})
	if err != nil {
		t.Fatal(err)
	}
	// Writing twice with replace leaves one copy.
	for range 2 {
		if err := sink.Write(context.Background(), makeResult(t), "output/analysis_6"); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "output", "analysis_6.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got := readAll(t, f)
	want := [][]string{
		{"DRVR_ZIP", "count"},
		{"76010", "2"},
		{"73101, OK", "1"},
		{"", "1"},
	}
	if len(got) != len(want) {
		t.Fatalf("records = %v", got)
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("record %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSinkAppendKeepsSingleHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := storage.NewSink(storage.SinkConfig{Kind: "csv", DSN: dir, Replace: false})
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := sink.Write(context.Background(), makeResult(t), "analysis_6"); err != nil {
			t.Fatal(err)
		}
	}
	f, err := os.Open(filepath.Join(dir, "analysis_6.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := readAll(t, f); len(got) != 7 {
		t.Fatalf("records = %d, want header + 6 rows", len(got))
	}
}

func TestSinkLZ4RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := storage.NewSink(storage.SinkConfig{
		Kind:    "csv",
		DSN:     dir,
		Replace: true,
		Options: config.Options{"compression": "lz4", "comma": ";"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(context.Background(), makeResult(t), "analysis_6"); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "analysis_6.csv.lz4"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cr := csv.NewReader(lz4.NewReader(f))
	cr.Comma = ';'
	got, err := cr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[2][0] != "73101, OK" {
		t.Fatalf("records = %v", got)
	}

	// Appending to a compressed file is refused.
	appendSink, err := storage.NewSink(storage.SinkConfig{
		Kind: "csv", DSN: dir, Options: config.Options{"compression": "lz4"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := appendSink.Write(context.Background(), makeResult(t), "analysis_6"); err == nil {
		t.Fatal("want error appending to lz4 file")
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"TX", "TX"},
		{int64(-4), "-4"},
		{0.25, "0.25"},
		{true, "true"},
		{int32(7), "7"},
	}
	for _, tt := range tests {
		if got := format(tt.in); got != tt.want {
			t.Errorf("format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
