package deadletter

import (
	"errors"
	"fmt"
	"time"

	"csvload/internal/etlerr"
)

// MaxErrors bounds the error records a Stats retains; counts stay exact.
const MaxErrors = 1000

// Run status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Stats accumulates row and batch outcomes of one run. It is owned by the
// goroutine driving the load.
type Stats struct {
	TotalRows      int
	SuccessfulRows int
	FailedRows     int
	Errors         []etlerr.Record
	DroppedErrors  int
	StartTime      time.Time
	EndTime        time.Time

	kinds          map[etlerr.Kind]int
	batches        int
	batchesWithRow int
	fatal          error
	now            func() time.Time
}

// NewStats starts the run clock.
func NewStats() *Stats {
	return newStatsAt(time.Now)
}

func newStatsAt(now func() time.Time) *Stats {
	return &Stats{StartTime: now(), kinds: map[etlerr.Kind]int{}, now: now}
}

// RecordSuccess counts n loaded rows.
func (s *Stats) RecordSuccess(n int) {
	s.SuccessfulRows += n
	s.TotalRows += n
}

// RecordFailure counts n rows lost to err.
func (s *Stats) RecordFailure(n int, err error) {
	s.FailedRows += n
	s.TotalRows += n
	s.Note(err)
}

// Note retains err without counting rows, e.g. a bulk insert failure that
// was recovered by row mode.
func (s *Stats) Note(err error) {
	if err == nil {
		return
	}
	rec := toRecord(err)
	s.kinds[rec.Kind]++
	if len(s.Errors) >= MaxErrors {
		s.DroppedErrors++
		return
	}
	s.Errors = append(s.Errors, rec)
}

// RecordBatch counts one attempted batch and whether it stored any row.
func (s *Stats) RecordBatch(loaded int) {
	s.batches++
	if loaded > 0 {
		s.batchesWithRow++
	}
}

// Fail marks the run as aborted by a fatal error.
func (s *Stats) Fail(err error) {
	if err == nil {
		return
	}
	s.fatal = err
	s.Note(err)
}

// Complete stamps the end time once; later calls keep the first stamp.
func (s *Stats) Complete() {
	if s.EndTime.IsZero() {
		s.EndTime = s.now()
	}
}

// Status is "failed" after a fatal error or when batches ran and none of
// them stored a row; otherwise "success".
func (s *Stats) Status() string {
	if s.fatal != nil || (s.batches > 0 && s.batchesWithRow == 0) {
		return StatusFailed
	}
	return StatusSuccess
}

// ErrorKindCounts returns a copy of the per-kind failure counts.
func (s *Stats) ErrorKindCounts() map[etlerr.Kind]int {
	out := make(map[etlerr.Kind]int, len(s.kinds))
	for k, v := range s.kinds {
		out[k] = v
	}
	return out
}

// Summary completes the run if needed and reports it.
func (s *Stats) Summary() Summary {
	s.Complete()
	sum := Summary{
		TotalRows:       s.TotalRows,
		SuccessfulRows:  s.SuccessfulRows,
		FailedRows:      s.FailedRows,
		DurationSeconds: s.EndTime.Sub(s.StartTime).Seconds(),
		Status:          s.Status(),
		ErrorKindCounts: s.ErrorKindCounts(),
		ErrorCount:      len(s.Errors) + s.DroppedErrors,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
	}
	if s.TotalRows > 0 {
		sum.SuccessRatePercent = float64(s.SuccessfulRows) / float64(s.TotalRows) * 100
	}
	if s.fatal != nil {
		sum.FatalError = s.fatal.Error()
	}
	return sum
}

// Summary is the final report of a run.
type Summary struct {
	RunID              string              `json:"run_id,omitempty"`
	Source             string              `json:"source,omitempty"`
	Table              string              `json:"table,omitempty"`
	TotalRows          int                 `json:"total_rows"`
	SuccessfulRows     int                 `json:"successful_rows"`
	FailedRows         int                 `json:"failed_rows"`
	SuccessRatePercent float64             `json:"success_rate_percent"`
	DurationSeconds    float64             `json:"duration_seconds"`
	Status             string              `json:"status"`
	ErrorKindCounts    map[etlerr.Kind]int `json:"error_kind_counts"`
	ErrorCount         int                 `json:"error_count"`
	DeadLetterPath     string              `json:"dead_letter_path,omitempty"`
	FatalError         string              `json:"fatal_error,omitempty"`
	StartTime          time.Time           `json:"start_time"`
	EndTime            time.Time           `json:"end_time"`
}

// Describe renders the classic one-line status: "Completed", "Completed
// with errors" or "Failed", followed by counts and the success rate.
func (s Summary) Describe() string {
	state := "Completed"
	switch {
	case s.Status == StatusFailed:
		state = "Failed"
	case s.FailedRows > 0:
		state = "Completed with errors"
	}
	return fmt.Sprintf("%s: %d/%d rows loaded (%.2f%%), %d failed, %.2fs",
		state, s.SuccessfulRows, s.TotalRows, s.SuccessRatePercent, s.FailedRows, s.DurationSeconds)
}

func toRecord(err error) etlerr.Record {
	var e *etlerr.Error
	if errors.As(err, &e) {
		return e.ToRecord()
	}
	return etlerr.Record{Kind: etlerr.KindUnknown, Message: err.Error(), Timestamp: time.Now()}
}
