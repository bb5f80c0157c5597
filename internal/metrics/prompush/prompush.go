// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A run is short-lived, so nothing is scraped: collectors live in a private
// registry and Flush pushes them once to the gateway, grouped by job and,
// when set, by run id.
package prompush

import (
	"fmt"

	"carcrash/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job used when Config.Job is empty.
const DefaultJob = "carcrash"

// Config configures the Pushgateway backend.
type Config struct {
	// GatewayURL is the base URL of the Pushgateway, e.g. http://pushgateway:9091.
	GatewayURL string
	// Job is the Pushgateway "job" grouping key.
	Job string
	// RunID, when set, is added as a "run_id" grouping key so runs do not
	// overwrite each other.
	RunID string
}

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	cfg Config
	reg *prometheus.Registry

	stepCounter  *prometheus.CounterVec // crash_step_total
	stepDuration *prometheus.SummaryVec // crash_step_duration_seconds
	rowCounter   *prometheus.CounterVec // crash_rows_total
	batchCounter prometheus.Counter     // crash_batches_total
}

// NewBackend constructs a Pushgateway backend with its own registry.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if cfg.Job == "" {
		cfg.Job = DefaultJob
	}

	b := &Backend{
		cfg: cfg,
		reg: prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Dataset loads, analyses and sink writes, by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StepDurationSeconds,
				Help:       "Step duration in seconds, by step and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		rowCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RowsTotal,
				Help: "Rows by kind (loaded, result, written).",
			},
			[]string{"kind"},
		),
		batchCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metrics.BatchesTotal,
				Help: "Sink batches flushed.",
			},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":  b.stepCounter,
		"step summary":  b.stepDuration,
		"row counter":   b.rowCounter,
		"batch counter": b.batchCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush() error {
	p := push.New(b.cfg.GatewayURL, b.cfg.Job).Gatherer(b.reg)
	if b.cfg.RunID != "" {
		p = p.Grouping("run_id", b.cfg.RunID)
	}
	return p.Push()
}
