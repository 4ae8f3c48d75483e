// Package pipeline runs a properties/events batch through normalization,
// validation, deduplication and reporting.
//
// The order is fixed:
//
//	NORMALIZE -> VALIDATE_PROPERTIES -> DEDUP_PROPERTIES
//	          -> VALIDATE_EVENTS (+FK) -> DEDUP_EVENTS -> REPORT
//
// Events are checked against the APNs of the cleaned, deduplicated property
// table, so a rejected or superseded property never anchors an event.
// Rejected rows accumulate across stages and are returned together.
//
// Run is synchronous and single-threaded; it owns copies of its inputs and
// never modifies the tables it is given.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bmetcalf21/data-integrity-validator/internal/logging"
	"github.com/bmetcalf21/data-integrity-validator/internal/metrics"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
	"github.com/bmetcalf21/data-integrity-validator/internal/stats"
	"github.com/bmetcalf21/data-integrity-validator/internal/transformer/builtin"
)

// Rejected output columns placed ahead of the data columns.
const (
	ColSourceTable     = "source_table"
	ColViolationReason = "violation_reason"
)

// DefaultJob labels metrics when Options.Job is empty.
const DefaultJob = "data-integrity-validator"

// Dedup keys.
var (
	PropertyKey = []string{rules.ColAPN}
	EventKey    = []string{rules.ColAPN, rules.ColEventType, rules.ColEventDate, rules.ColSource}
)

// Options configures a run.
type Options struct {
	// Rules is the rule configuration; the zero value means
	// rules.DefaultConfig().
	Rules *rules.Config

	// TopN bounds the postponement list (see stats.Options.TopN).
	TopN int

	// Job labels metrics.
	Job string

	// Logger receives one line per stage. Nil discards.
	Logger *slog.Logger
}

// Result is everything a run produces.
type Result struct {
	// Properties and Events are the cleaned tables, canonical spellings
	// applied, one row per dedup key.
	Properties records.Table
	Events     records.Table

	// Rejected holds rejected properties followed by rejected events, each
	// in input order.
	Rejected []records.RejectedRow

	Stats stats.Report
}

// RejectedTable renders Rejected as one table: source_table,
// violation_reason, then the property columns, then event-only columns.
// Cells a row does not have are empty.
func (r *Result) RejectedTable() records.Table {
	cols := []string{ColSourceTable, ColViolationReason}
	seen := map[string]struct{}{ColSourceTable: {}, ColViolationReason: {}}
	for _, set := range [][]string{r.Properties.Columns, r.Events.Columns} {
		for _, c := range set {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}

	t := records.Table{Name: "rejected", Columns: cols, Rows: make([]records.Record, 0, len(r.Rejected))}
	for _, rej := range r.Rejected {
		row := rej.Record.Clone()
		row[ColSourceTable] = rej.Table
		row[ColViolationReason] = rej.Reason()
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, rej.Line)
	}
	return t
}

type runner struct {
	log *slog.Logger
	job string
}

// step runs fn as stage s, logging and recording its outcome.
func (r runner) step(s Stage, fn func() (attrs []any, err error)) error {
	start := time.Now()
	attrs, err := fn()
	d := time.Since(start)
	metrics.RecordStage(r.job, s.String(), err, d)
	if err != nil {
		r.log.Error("stage failed", "stage", s.String(), "error", err)
		return fmt.Errorf("%s: %w", s, err)
	}
	r.log.Info("stage done", append([]any{"stage", s.String(), "elapsed", d}, attrs...)...)
	return nil
}

// Run executes every stage over the given raw tables.
//
// A missing required column in either table aborts the run with an error
// wrapping *rules.MissingColumnsError; no partial result is returned.
// Row-level problems never produce an error.
func Run(props, events records.Table, opt Options) (*Result, error) {
	cfg := rules.DefaultConfig()
	if opt.Rules != nil {
		cfg = *opt.Rules
	}
	job := opt.Job
	if job == "" {
		job = DefaultJob
	}
	r := runner{log: logging.OrDiscard(opt.Logger), job: job}
	if len(cfg.TimestampLayouts) == 0 {
		cfg.TimestampLayouts = rules.DefaultLayouts
	}
	recency := rules.Timestamps(cfg.TimestampLayouts)

	var (
		res         Result
		np, ne      records.Table
		validProps  rules.Partition
		validEvents rules.Partition
	)
	res.Stats.Properties.Input = props.Len()
	res.Stats.Events.Input = events.Len()

	if err := r.step(StageNormalize, func() ([]any, error) {
		n := builtin.Normalize{}
		np, ne = n.Table(props), n.Table(events)
		return []any{"properties", np.Len(), "events", ne.Len()}, nil
	}); err != nil {
		return nil, err
	}
	if np.Name == "" {
		np.Name = rules.TableProperties
	}
	if ne.Name == "" {
		ne.Name = rules.TableEvents
	}

	if err := r.step(StageValidateProperties, func() ([]any, error) {
		eng, err := rules.PropertyRules(cfg)
		if err != nil {
			return nil, err
		}
		validProps, err = eng.Partition(np)
		if err != nil {
			return nil, err
		}
		res.Rejected = append(res.Rejected, validProps.Rejected...)
		return []any{"rows_in", np.Len(), "rows_out", validProps.Valid.Len(), "rejected", len(validProps.Rejected)}, nil
	}); err != nil {
		return nil, err
	}

	if err := r.step(StageDedupProperties, func() ([]any, error) {
		res.Properties, res.Stats.Properties.Duplicates = dedup(validProps.Valid, builtin.DeDup{
			Keys:         PropertyKey,
			Policy:       builtin.PolicyMostRecent,
			RecencyField: rules.ColLastUpdated,
			Recency:      recency,
		})
		return []any{"rows_in", validProps.Valid.Len(), "rows_out", res.Properties.Len(), "duplicates", res.Stats.Properties.Duplicates}, nil
	}); err != nil {
		return nil, err
	}

	if err := r.step(StageValidateEvents, func() ([]any, error) {
		apns := make([]string, 0, res.Properties.Len())
		for _, row := range res.Properties.Rows {
			apns = append(apns, row[rules.ColAPN])
		}
		eng, err := rules.EventRules(cfg, rules.NewReferentialChecker(apns))
		if err != nil {
			return nil, err
		}
		validEvents, err = eng.Partition(ne)
		if err != nil {
			return nil, err
		}
		res.Rejected = append(res.Rejected, validEvents.Rejected...)
		return []any{"rows_in", ne.Len(), "rows_out", validEvents.Valid.Len(), "rejected", len(validEvents.Rejected), "known_apns", len(apns)}, nil
	}); err != nil {
		return nil, err
	}

	if err := r.step(StageDedupEvents, func() ([]any, error) {
		res.Events, res.Stats.Events.Duplicates = dedup(validEvents.Valid, builtin.DeDup{
			Keys:         EventKey,
			Policy:       builtin.PolicyMostRecent,
			RecencyField: rules.ColUpdatedAt,
			Recency:      recency,
		})
		return []any{"rows_in", validEvents.Valid.Len(), "rows_out", res.Events.Len(), "duplicates", res.Stats.Events.Duplicates}, nil
	}); err != nil {
		return nil, err
	}

	if err := r.step(StageReport, func() ([]any, error) {
		res.Stats.Properties.Cleaned = res.Properties.Len()
		res.Stats.Properties.Rejected = len(validProps.Rejected)
		res.Stats.Events.Cleaned = res.Events.Len()
		res.Stats.Events.Rejected = len(validEvents.Rejected)
		res.Stats = stats.Compute(stats.Input{
			Properties:    res.Stats.Properties,
			Events:        res.Stats.Events,
			CleanedEvents: res.Events,
		}, stats.Options{
			Sources: cfg.Sources,
			TopN:    opt.TopN,
			Layouts: cfg.TimestampLayouts,
		})
		recordCounts(job, rules.TableProperties, res.Stats.Properties)
		recordCounts(job, rules.TableEvents, res.Stats.Events)
		return []any{"rejected", len(res.Rejected)}, nil
	}); err != nil {
		return nil, err
	}

	return &res, nil
}

// dedup runs d over t and returns the surviving rows as a table with t's
// header. Source lines travel with their rows.
func dedup(t records.Table, d builtin.DeDup) (records.Table, int) {
	keep, removed := d.Select(t.Rows)
	out := records.Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]records.Record, 0, len(keep)),
		Lines:   make([]int, 0, len(keep)),
	}
	for _, i := range keep {
		out.Rows = append(out.Rows, t.Rows[i])
		out.Lines = append(out.Lines, t.Line(i))
	}
	return out, removed
}

func recordCounts(job, table string, c stats.TableCounts) {
	metrics.RecordRows(job, table, "input", c.Input)
	metrics.RecordRows(job, table, "cleaned", c.Cleaned)
	metrics.RecordRows(job, table, "rejected", c.Rejected)
	metrics.RecordRows(job, table, "duplicates", c.Duplicates)
}
