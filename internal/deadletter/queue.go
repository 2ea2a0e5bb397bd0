// Package deadletter records rows that could not be loaded and keeps the run
// statistics that end up in the summary.
//
// A Queue owns at most one dead-letter CSV per run. The file is created on
// the first failure, so a clean run leaves nothing behind. Its header is the
// source columns followed by error_type, error_message and error_timestamp.
package deadletter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"csvload/internal/etlerr"
	"csvload/internal/probe"
)

// DefaultDir is the directory dead-letter files are written to when none is
// configured.
const DefaultDir = "errors"

// ErrorColumns are appended to the source columns in every dead-letter file.
var ErrorColumns = []string{"error_type", "error_message", "error_timestamp"}

// FailedRecord is one row that could not be loaded.
type FailedRecord struct {
	Row       int
	Values    []string
	Kind      etlerr.Kind
	Message   string
	Timestamp time.Time
}

// Queue appends FailedRecords to a lazily created CSV file.
type Queue struct {
	dir     string
	base    string
	columns []string
	now     func() time.Time

	f      *os.File
	w      *csv.Writer
	path   string
	counts map[etlerr.Kind]int
	closed bool
}

// NewQueue returns a Queue for the source file at source. No file is created
// until the first failure.
func NewQueue(dir, source string, columns []string) *Queue {
	if dir == "" {
		dir = DefaultDir
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return &Queue{
		dir:     dir,
		base:    base,
		columns: append([]string(nil), columns...),
		now:     time.Now,
		counts:  map[etlerr.Kind]int{},
	}
}

// RecordBatchFailure dead-letters the values of source row row with the kind
// and message of err.
func (q *Queue) RecordBatchFailure(row int, values []string, err error) error {
	rec := FailedRecord{Row: row, Values: values, Kind: etlerr.KindOf(err), Timestamp: q.now()}
	var e *etlerr.Error
	if errors.As(err, &e) {
		rec.Message = e.Text()
		if !e.Timestamp.IsZero() {
			rec.Timestamp = e.Timestamp
		}
	} else if err != nil {
		rec.Message = err.Error()
	}
	return q.Write(rec)
}

// Write appends rec to the dead-letter file, creating it if needed.
func (q *Queue) Write(rec FailedRecord) error {
	if q.closed {
		return errors.New("deadletter: queue closed")
	}
	if q.w == nil {
		if err := q.open(); err != nil {
			return err
		}
	}

	line := make([]string, 0, len(q.columns)+len(ErrorColumns))
	for i := range q.columns {
		v := ""
		if i < len(rec.Values) && !probe.IsAbsent(rec.Values[i]) {
			v = rec.Values[i]
		}
		line = append(line, v)
	}
	msg := rec.Message
	if len(rec.Values) > len(q.columns) {
		msg += "; extra fields: " + quoteFields(rec.Values[len(q.columns):])
	}
	line = append(line, string(rec.Kind), msg, rec.Timestamp.Format(time.RFC3339))
	if err := q.w.Write(line); err != nil {
		return fmt.Errorf("deadletter: write: %w", err)
	}
	// Flush per row so the file stays valid if the run dies.
	q.w.Flush()
	if err := q.w.Error(); err != nil {
		return fmt.Errorf("deadletter: flush: %w", err)
	}
	q.counts[rec.Kind]++
	return nil
}

// quoteFields renders fields that have no column, e.g. `"a","b,c"`.
func quoteFields(fields []string) string {
	q := make([]string, len(fields))
	for i, f := range fields {
		q[i] = strconv.Quote(f)
	}
	return strings.Join(q, ",")
}

// open creates <dir>/<base>_errors_<timestamp>.csv, adding _2, _3, … when a
// file of that name already exists, and writes the header.
func (q *Queue) open() error {
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return fmt.Errorf("deadletter: mkdir %s: %w", q.dir, err)
	}
	stem := fmt.Sprintf("%s_errors_%s", q.base, q.now().Format("20060102_150405"))
	for n := 1; ; n++ {
		name := stem + ".csv"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.csv", stem, n)
		}
		path := filepath.Join(q.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("deadletter: create %s: %w", path, err)
		}
		q.f, q.path = f, path
		break
	}

	q.w = csv.NewWriter(q.f)
	header := append(append([]string(nil), q.columns...), ErrorColumns...)
	if err := q.w.Write(header); err != nil {
		return fmt.Errorf("deadletter: header: %w", err)
	}
	log.Printf("deadletter: opened path=%s", q.path)
	return nil
}

// ErrorCounts returns a copy of the per-kind count of dead-lettered rows.
func (q *Queue) ErrorCounts() map[etlerr.Kind]int {
	out := make(map[etlerr.Kind]int, len(q.counts))
	for k, v := range q.counts {
		out[k] = v
	}
	return out
}

// Path is the dead-letter file path, or "" if nothing was written.
func (q *Queue) Path() string { return q.path }

// Close flushes and closes the file. It is safe to call more than once and
// on a queue that never opened a file.
func (q *Queue) Close() error {
	q.closed = true
	if q.f == nil {
		return nil
	}
	q.w.Flush()
	werr := q.w.Error()
	cerr := q.f.Close()
	q.f, q.w = nil, nil
	if werr != nil {
		return fmt.Errorf("deadletter: flush: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("deadletter: close: %w", cerr)
	}
	return nil
}
