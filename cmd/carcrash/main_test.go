package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carcrash/internal/analysis"
	"carcrash/internal/config"
	"carcrash/internal/datasource/httpds"

	"github.com/fatih/color"
)

const personCSV = `CRASH_ID,UNIT_NBR,PRSN_NBR,PRSN_GNDR_ID,DRVR_LIC_STATE_ID,DEATH_CNT
1,1,1,MALE,TX,0
1,2,1,FEMALE,TX,0
2,1,1,FEMALE,OK,0
3,1,1,MALE,TX,1
4,1,1,FEMALE,TX,0
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// restoreLogger keeps slog's default intact across tests that call run.
func restoreLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestRun_EndToEnd(t *testing.T) {
	restoreLogger(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "Primary_Person_use.csv"), personCSV)
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, `
INPUT:
  Primary_Person: `+filepath.Join(dir, "data", "Primary_Person_use.csv")+`
OUTPUT:
  analysis_1_output: out/analysis_1
  analysis_3_output: out/analysis_3
LOGGING:
  namespace: car_crash
  level: INFO
  path: `+filepath.Join(dir, "logs", "run.log")+`
  mode: w
SINK:
  kind: csv
  dsn: `+dir+`
RUNTIME:
  parallelism: 2
`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-analyses", "1,3", "-no-color"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit %d; stderr:\n%s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"ANALYSIS 1: Number of crashes in which person killed is Male: 2\n",
		"ANALYSIS 3: State with highest number of accidents involving females: TX\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	f, err := os.Open(filepath.Join(dir, "out", "analysis_1.csv"))
	if err != nil {
		t.Fatalf("result file: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[0][0] != "CRASH_ID" {
		t.Fatalf("analysis_1.csv = %v", recs)
	}

	logs, err := os.ReadFile(filepath.Join(dir, "logs", "run.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logs), "logger=car_crash") || !strings.Contains(string(logs), "run_id=") {
		t.Errorf("log file lacks logger or run_id:\n%s", logs)
	}
}

func TestRun_Failures(t *testing.T) {
	restoreLogger(t)
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	writeFile(t, valid, "INPUT:\n  Primary_Person: "+filepath.Join(dir, "missing.csv")+"\nLOGGING:\n  path: "+filepath.Join(dir, "run.log")+"\n")
	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "OUTPUT:\n  analysis_1_output: out/a\n")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
		wantOut  string
	}{
		{"unknown flag", []string{"-nope"}, exitUsage, "flag provided but not defined", ""},
		{"stray argument", []string{"-config", valid, "extra"}, exitUsage, "unexpected arguments", ""},
		{"missing config", []string{"-config", filepath.Join(dir, "none.yaml")}, exitFailed, "load config", ""},
		{"invalid config", []string{"-config", invalid}, exitFailed, "configuration is invalid", ""},
		{"validate only", []string{"-config", valid, "-validate"}, exitOK, "", "configuration is valid"},
		{"unknown analysis", []string{"-config", valid, "-analyses", "9"}, exitUsage, "unknown analysis 9", ""},
		{"bad analysis list", []string{"-config", valid, "-analyses", "one"}, exitUsage, "analysis id", ""},
		{"input missing on disk", []string{"-config", valid, "-analyses", "1", "-no-color"}, exitFailed, "", "not completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit = %d, want %d; stderr:\n%s", code, tt.wantCode, stderr.String())
			}
			if tt.wantErr != "" && !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantOut)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"CRITICAL", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoaderOptions(t *testing.T) {
	t.Parallel()

	got := loaderOptions(config.Options{
		"comma":             ";",
		"trim_space":        true,
		"normalize_headers": true,
		"truthy":            []any{"Y"},
		"falsy":             []any{"N"},
	})
	if got.Comma != ';' || !got.TrimSpace || !got.NormalizeHeaders || len(got.Truthy) != 1 || got.Falsy[0] != "N" {
		t.Fatalf("loaderOptions = %+v", got)
	}
	if def := loaderOptions(nil); def.Comma != ',' || def.TrimSpace {
		t.Fatalf("defaults = %+v", def)
	}
	if h := httpConfig(config.Options{"http_retries": 5}); h.MaxRetries != 5 {
		t.Fatalf("httpConfig = %+v", h)
	}
	if h := httpConfig(nil); h.MaxRetries != httpds.DefaultMaxRetries || h.Timeout != 0 {
		t.Fatalf("httpConfig defaults = %+v", h)
	}
	rules := dedupRules(map[string]config.Dedup{"Units": {Keys: []string{"CRASH_ID"}, Policy: "keep-last", Prefer: []string{"VEH_MAKE_ID"}}})
	if r := rules["Units"]; r.Policy != "keep-last" || r.Keys[0] != "CRASH_ID" || r.PreferFields[0] != "VEH_MAKE_ID" {
		t.Fatalf("dedupRules = %+v", rules)
	}
	if dedupRules(nil) != nil {
		t.Fatal("dedupRules(nil) must be nil")
	}
}

func TestWriteReport(t *testing.T) {
	color.NoColor = true

	list, err := analysis.Select([]int{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	results := []analysis.Result{{ID: 2, Summary: analysis.CountSummary(7)}}

	var buf bytes.Buffer
	writeReport(&buf, list, results)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("report:\n%s", buf.String())
	}
	if lines[0] != "ANALYSIS 2: Number of two wheelers booked for crashes: 7" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ANALYSIS 4: ") || !strings.HasSuffix(lines[1], ": not completed") {
		t.Errorf("line 2 = %q", lines[1])
	}
}
