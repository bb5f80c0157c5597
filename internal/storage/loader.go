package storage

// This file implements a generic, batched loader that drains rows from a
// channel and invokes a bulk-insert function (CopyFn) per batch. Backends
// implement CopyFn with their most efficient primitive (Postgres COPY, bulk
// copy on SQL Server, multi-row INSERT elsewhere).

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carcrash/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows (aligned to
// columns) and returns the number reported as inserted. It must cancel
// promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error encountered; (total, ctx.Err()) on cancel.
//
// Every successful flush is logged with running totals and rows/sec since the
// previous flush, and counted under job in the metrics backend.
func LoadBatches(
	ctx context.Context,
	job string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n

		// Keep capacity; copyFn must not retain the slice.
		batch = batch[:0]

		if err != nil {
			slog.Error("loader: copy failed",
				"component", "loader", "job", job, "inserted", n, "total", total, "err", err)
			return err
		}

		batches++
		metrics.RecordBatches(job, 1)
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		slog.Debug("loader: batch flushed",
			"component", "loader",
			"job", job,
			"batch", batches,
			"rps", int64(rps),
			"inserted", n,
			"total_inserted", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				slog.Debug("loader: input closed",
					"component", "loader", "job", job, "batches", batches, "total_inserted", total)
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
