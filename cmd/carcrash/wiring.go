package main

import (
	"log/slog"
	"time"

	"carcrash/internal/config"
	"carcrash/internal/datasource/httpds"
	"carcrash/internal/metrics"
	"carcrash/internal/metrics/datadog"
	"carcrash/internal/metrics/prompush"
	"carcrash/internal/parser/csv"
	"carcrash/internal/transformer/builtin"
)

// setupMetrics installs the backend named by METRICS.backend. A backend that
// fails to initialize is logged and metrics stay disabled. The returned func
// flushes the backend and must run last.
func setupMetrics(m config.Metrics, runID string) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(prompush.Config{
			GatewayURL: m.PushgatewayURL,
			Job:        m.Job,
			RunID:      runID,
		})
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: m.Tags,
			RunID:      runID,
		})
	case "", "none":
		slog.Debug("metrics: disabled", "component", "metrics")
		return func() {}
	default:
		slog.Warn("metrics: unknown backend; metrics disabled", "component", "metrics", "backend", m.Backend)
		return func() {}
	}
	if err != nil {
		slog.Warn("metrics: backend init failed; metrics disabled",
			"component", "metrics", "backend", m.Backend, "err", err)
		return func() {}
	}

	metrics.SetBackend(b)
	slog.Info("metrics: enabled", "component", "metrics", "backend", m.Backend, "job", m.Job)
	return func() {
		if err := metrics.Flush(); err != nil {
			slog.Warn("metrics: flush failed", "component", "metrics", "err", err)
		}
	}
}

// loaderOptions maps PARSER onto the CSV loader options.
func loaderOptions(p config.Options) csv.Options {
	return csv.Options{
		Comma:            p.Rune("comma", ','),
		TrimSpace:        p.Bool("trim_space", false),
		NormalizeHeaders: p.Bool("normalize_headers", false),
		Truthy:           p.StringSlice("truthy"),
		Falsy:            p.StringSlice("falsy"),
	}
}

// httpConfig maps the PARSER http_* keys used for http(s) INPUT locations.
func httpConfig(p config.Options) httpds.Config {
	return httpds.Config{
		Timeout:            time.Duration(p.Int("http_timeout_seconds", 0)) * time.Second,
		MaxRetries:         p.Int("http_retries", httpds.DefaultMaxRetries),
		InsecureSkipVerify: p.Bool("http_insecure_skip_verify", false),
	}
}

// dedupRules maps the DEDUP section onto per-dataset DeDup steps.
func dedupRules(d map[string]config.Dedup) map[string]builtin.DeDup {
	if len(d) == 0 {
		return nil
	}
	out := make(map[string]builtin.DeDup, len(d))
	for name, r := range d {
		out[name] = builtin.DeDup{Keys: r.Keys, Policy: r.Policy, PreferFields: r.Prefer}
	}
	return out
}
