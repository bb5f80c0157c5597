package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carcrash/internal/metrics"

	dto "github.com/prometheus/client_model/go"
)

func gathered(t *testing.T, b *Backend) map[string]*dto.MetricFamily {
	t.Helper()
	fams, err := b.reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(fams))
	for _, f := range fams {
		out[f.GetName()] = f
	}
	return out
}

func labelsOf(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("want error without gateway URL")
	}
	b, err := NewBackend(Config{GatewayURL: "http://pushgateway:9091"})
	if err != nil {
		t.Fatal(err)
	}
	if b.cfg.Job != DefaultJob {
		t.Fatalf("job = %q, want %q", b.cfg.Job, DefaultJob)
	}
	b, _ = NewBackend(Config{GatewayURL: "http://pushgateway:9091", Job: "nightly"})
	if b.cfg.Job != "nightly" {
		t.Fatalf("job = %q", b.cfg.Job)
	}
}

func TestBackend_RecordsRunMetrics(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{GatewayURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load:Units", "status": "ok"})
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "analysis_7", "status": "error"})
	b.IncCounter(metrics.RowsTotal, 120, metrics.Labels{"kind": "loaded"})
	b.IncCounter(metrics.BatchesTotal, 2, nil)
	b.IncCounter("crash_unknown_total", 5, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "analysis_7", "status": "error"})
	b.ObserveHistogram("crash_unknown_seconds", 1, nil)

	fams := gathered(t, b)
	if len(fams) != 4 {
		t.Fatalf("families = %d, want 4", len(fams))
	}

	steps := fams[metrics.StepTotal].GetMetric()
	if len(steps) != 2 {
		t.Fatalf("step series = %d, want 2", len(steps))
	}
	for _, m := range steps {
		l := labelsOf(m)
		if l["step"] == "analysis_7" && l["status"] != "error" {
			t.Errorf("analysis_7 labels = %v", l)
		}
		if v := m.GetCounter().GetValue(); v != 1 {
			t.Errorf("%v = %v, want 1", l, v)
		}
	}

	if v := fams[metrics.RowsTotal].GetMetric()[0].GetCounter().GetValue(); v != 120 {
		t.Errorf("rows = %v, want 120", v)
	}
	if v := fams[metrics.BatchesTotal].GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("batches = %v, want 2", v)
	}
	sum := fams[metrics.StepDurationSeconds].GetMetric()[0].GetSummary()
	if sum.GetSampleCount() != 1 || sum.GetSampleSum() != 0.25 {
		t.Errorf("duration summary = %d/%v", sum.GetSampleCount(), sum.GetSampleSum())
	}
}

func TestBackend_ZeroValueIgnoresUpdates(t *testing.T) {
	t.Parallel()

	var b Backend
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "x", "status": "ok"})
	b.IncCounter(metrics.RowsTotal, 1, nil)
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
}

func TestFlush(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	var gotBody int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		n, _ := io.Copy(buf, r.Body)
		gotPath, gotMethod, gotBody = r.URL.Path, r.Method, int(n)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend(Config{GatewayURL: srv.URL, Job: "carcrash", RunID: "run-1"})
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "analysis_1", "status": "ok"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if gotPath != "/metrics/job/carcrash/run_id/run-1" {
		t.Fatalf("path = %q, want job and run_id grouping", gotPath)
	}
	if gotMethod != http.MethodPut || gotBody == 0 {
		t.Fatalf("method = %s, body = %d bytes", gotMethod, gotBody)
	}
}

func TestFlush_GatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b, _ := NewBackend(Config{GatewayURL: srv.URL})
	if err := b.Flush(); err == nil {
		t.Fatal("want error from failing gateway")
	}
}
