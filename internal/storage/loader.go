package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmetcalf21/data-integrity-validator/internal/logging"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchStats summarizes a LoadBatches call.
type BatchStats struct {
	Rows    int64
	Batches int
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the running totals and
// the first error encountered; on cancellation the error is ctx.Err().
func LoadBatches(
	ctx context.Context,
	log *slog.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (BatchStats, error) {
	var st BatchStats
	log = logging.OrDiscard(log)
	if batchSize <= 0 {
		return st, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return st, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch = make([][]any, 0, batchSize)
		start = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		batch = batch[:0]
		if err != nil {
			log.Error("loader: copy failed", "after", n, "total", st.Rows, "error", err)
			return err
		}
		st.Batches++
		log.Debug("loader: batch flushed",
			"batch", st.Batches,
			"rows", n,
			"total", st.Rows,
			"elapsed", time.Since(start).Truncate(time.Millisecond),
		)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return st, err
				}
				return st, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return st, err
				}
			}
		}
	}
}
