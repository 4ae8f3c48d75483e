package storage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bmetcalf21/data-integrity-validator/internal/logging"
	"github.com/bmetcalf21/data-integrity-validator/internal/metrics"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// DefaultBatchSize is used when PublishOptions.BatchSize is zero.
const DefaultBatchSize = 500

// PublishOptions configures Publish.
type PublishOptions struct {
	// Kind selects the DDL bootstrapper when AutoCreate is set.
	Kind string

	// TablePrefix is prepended to each table's Name.
	TablePrefix string

	BatchSize  int
	AutoCreate bool

	// Job labels metrics.
	Job    string
	Logger *slog.Logger
}

// Publish writes each table into a database table named TablePrefix+Name,
// every column typed as text. Tables are written one after another; it
// returns the rows written per destination table.
func Publish(ctx context.Context, repo Repository, opt PublishOptions, tables ...records.Table) (map[string]int64, error) {
	log := logging.OrDiscard(opt.Logger)
	size := opt.BatchSize
	if size == 0 {
		size = DefaultBatchSize
	}

	written := make(map[string]int64, len(tables))
	for _, t := range tables {
		name := opt.TablePrefix + t.Name
		if opt.AutoCreate {
			if err := EnsureTable(ctx, opt.Kind, repo, name, t.Columns); err != nil {
				return written, fmt.Errorf("storage: create %s: %w", name, err)
			}
		}

		st, err := loadTable(ctx, log, repo, name, t, size)
		if err != nil {
			return written, fmt.Errorf("storage: load %s: %w", name, err)
		}
		metrics.RecordBatches(opt.Job, st.Batches)
		written[name] = st.Rows
		log.Info("storage: table published", "table", name, "rows", st.Rows, "batches", st.Batches)
	}
	return written, nil
}

// loadTable streams t's rows through LoadBatches.
func loadTable(ctx context.Context, log *slog.Logger, repo Repository, name string, t records.Table, size int) (BatchStats, error) {
	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, size)

	g.Go(func() error {
		defer close(rows)
		for _, r := range t.Rows {
			row := make([]any, len(t.Columns))
			for i, c := range t.Columns {
				row[i] = r[c]
			}
			select {
			case rows <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var st BatchStats
	g.Go(func() error {
		var err error
		st, err = LoadBatches(gctx, log, t.Columns, rows, size,
			func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
				return repo.CopyFrom(ctx, name, columns, batch)
			})
		return err
	})

	err := g.Wait()
	return st, err
}
