// Package metrics is a small, backend-agnostic facade for load-run metrics.
//
// The loader records state transitions, row outcomes and batch modes through
// the package-level helpers. A no-op backend is installed by default, so the
// helpers are always safe to call; cmd/csvload swaps in a Pushgateway or
// DogStatsD backend (subpackages prompush and datadog) when configured.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers.
const (
	StateTotal           = "csvload_state_total"
	StateDurationSeconds = "csvload_state_duration_seconds"
	RowsTotal            = "csvload_rows_total"
	BatchesTotal         = "csvload_batches_total"
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

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one pass through a loader state and its duration,
// labelled by table, state and success/failure.
func RecordStep(table, state string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"table": table, "state": state, "status": status}

	b := current()
	b.IncCounter(StateTotal, 1, lbls)
	b.ObserveHistogram(StateDurationSeconds, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given outcome: "loaded", "failed" or
// "dead_lettered".
func RecordRow(table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"table": table, "kind": kind})
}

// RecordBatches counts batches stored in the given mode: "bulk" or "row".
func RecordBatches(table, mode string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"table": table, "mode": mode})
}
