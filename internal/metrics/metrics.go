// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a validation run.
//
// The package exposes a narrow interface (Backend) for counters and timings
// plus a global, pluggable backend that defaults to a no-op implementation,
// so metrics are always safe to call even when no real backend is
// configured. Concrete metric systems live in subpackages.
package metrics

import "time"

// Metric names understood by backends.
const (
	StageTotal    = "validator_stage_total"
	StageDuration = "validator_stage_duration_seconds"
	RowsTotal     = "validator_rows_total"
	BatchesTotal  = "validator_sink_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
// Call it before the run starts; it is not synchronized with recording.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage counts one pipeline stage execution and observes its duration.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind for a table.
//
// Kinds mirror the summary counts:
//   - "input"
//   - "cleaned"
//   - "rejected"
//   - "duplicates"
func RecordRows(job, table, kind string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":   job,
		"table": table,
		"kind":  kind,
	})
}

// RecordBatches counts batches written by a storage sink.
func RecordBatches(job string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
