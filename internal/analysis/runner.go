package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carcrash/internal/metrics"
	"carcrash/internal/table"

	"golang.org/x/sync/errgroup"
)

// Provider resolves a base table by dataset name.
type Provider interface {
	Dataset(ctx context.Context, name string) (*table.Table, error)
}

// Writer persists a result table under a destination.
type Writer interface {
	Write(ctx context.Context, t *table.Table, destination string) error
}

// Runner executes analyses against a Provider and hands results to a Writer.
type Runner struct {
	Datasets Provider

	// Sink receives result tables; nil skips persistence.
	Sink Writer

	// Outputs maps Analysis.OutputKey() to a destination. Analyses without a
	// destination are run but not written.
	Outputs map[string]string

	// Parallelism bounds concurrently running analyses; values below 1 run
	// them one at a time.
	Parallelism int

	// Job labels metrics.
	Job string
}

// Run executes list and returns results in list order. The first failure
// cancels analyses that have not started; the results completed so far are
// returned with the error.
func (r *Runner) Run(ctx context.Context, list []Analysis) ([]Result, error) {
	slog.Info("runner: start",
		"component", "runner",
		"analyses", len(list),
		"datasets", DatasetsFor(list),
		"parallelism", max(1, r.Parallelism),
	)

	done := make([]*Result, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Parallelism))
	for i, a := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.runOne(gctx, a)
			if err != nil {
				return fmt.Errorf("analysis %d (%s): %w", a.ID, a.Name, err)
			}
			done[i] = &res
			return nil
		})
	}
	err := g.Wait()

	out := make([]Result, 0, len(list))
	for _, res := range done {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out, err
}

func (r *Runner) runOne(ctx context.Context, a Analysis) (res Result, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStep(r.Job, a.Step(), err, time.Since(start))
	}()

	var d Datasets
	for _, name := range a.Needs {
		t, err := r.Datasets.Dataset(ctx, name)
		if err != nil {
			return Result{}, err
		}
		if err := d.set(name, t); err != nil {
			return Result{}, err
		}
	}

	res, err = a.Run(d)
	if err != nil {
		return Result{}, err
	}
	res.ID, res.Name = a.ID, a.Name
	metrics.RecordRows(r.Job, "result", int64(res.Table.Len()))

	dest := r.Outputs[a.OutputKey()]
	switch {
	case r.Sink == nil:
	case dest == "":
		slog.Warn("runner: no output destination",
			"component", "runner",
			"analysis", a.Step(),
			"key", a.OutputKey(),
		)
	default:
		if err := r.Sink.Write(ctx, res.Table, dest); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", dest, err)
		}
	}

	slog.Info("runner: analysis done",
		"component", "runner",
		"analysis", a.Step(),
		"name", a.Name,
		"rows", res.Table.Len(),
		"summary", res.Summary.String(),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (d *Datasets) set(name string, t *table.Table) error {
	switch name {
	case DatasetPerson:
		d.Person = t
	case DatasetUnit:
		d.Unit = t
	case DatasetDamage:
		d.Damage = t
	case DatasetCharge:
		d.Charge = t
	default:
		return fmt.Errorf("unknown dataset %q", name)
	}
	return nil
}
