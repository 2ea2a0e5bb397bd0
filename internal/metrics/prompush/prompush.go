// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A csvload run is a short-lived batch process, so collectors live in a
// private registry and are pushed to a Pushgateway when the run finishes
// instead of being exposed on a scrape endpoint. The table name is carried
// as a metric label; the Pushgateway "job" grouping key is fixed per backend.
package prompush

import (
	"fmt"

	"csvload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name used when none is given.
const DefaultJob = "csvload"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string
	reg        *prometheus.Registry

	stateCounter  *prometheus.CounterVec // csvload_state_total{table,state,status}
	stateDuration *prometheus.SummaryVec // csvload_state_duration_seconds{table,state,status}
	rowCounter    *prometheus.CounterVec // csvload_rows_total{table,kind}
	batchCounter  *prometheus.CounterVec // csvload_batches_total{table,mode}
}

// NewBackend constructs a Pushgateway backend. An empty jobName falls back
// to DefaultJob.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stateCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StateTotal,
				Help: "Loader state executions, partitioned by table, state and status.",
			},
			[]string{"table", "state", "status"},
		),
		stateDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StateDurationSeconds,
				Help:       "Time spent in each loader state in seconds.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"table", "state", "status"},
		),
		rowCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RowsTotal,
				Help: "Row outcomes per table (loaded, failed, dead_lettered).",
			},
			[]string{"table", "kind"},
		),
		batchCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.BatchesTotal,
				Help: "Batches stored per table and insert mode (bulk, row).",
			},
			[]string{"table", "mode"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"state counter": b.stateCounter,
		"state summary": b.stateDuration,
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
	case metrics.StateTotal:
		if b.stateCounter == nil {
			return
		}
		b.stateCounter.WithLabelValues(labels["table"], labels["state"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["table"], labels["kind"]).Add(delta)
	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.WithLabelValues(labels["table"], labels["mode"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StateDurationSeconds || b.stateDuration == nil {
		return
	}
	b.stateDuration.WithLabelValues(labels["table"], labels["state"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push for the same job.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
