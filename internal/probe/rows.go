package probe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
)

// Row is one data record of the file.
//
// Index is the 0-based position among data rows (header excluded); Line is
// the 1-based physical line where the record starts. Fields always has one
// entry per profile column: short records are padded with empty fields. When
// Err is set the record could not be aligned with the columns (too many
// fields or a CSV syntax error) and Fields holds whatever was read.
type Row struct {
	Index  int
	Line   int
	Fields []string
	Err    error
}

// Rows streams the data records of a file using a Profile. It holds one
// record at a time.
type Rows struct {
	rc      io.ReadCloser
	r       *csv.Reader
	width   int
	trim    bool
	skipHdr bool
	next    int
}

// OpenRows opens path for streaming with the layout described by p.
func OpenRows(ctx context.Context, path string, p Profile) (*Rows, error) {
	return OpenSourceRows(ctx, file.NewLocal(path), p)
}

// OpenSourceRows opens src for streaming with the layout described by p.
func OpenSourceRows(ctx context.Context, src datasource.Source, p Profile) (*Rows, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, sourceError(src, err)
	}
	dec, err := NewDecodingReader(rc, p.Encoding)
	if err != nil {
		rc.Close()
		return nil, err
	}

	r := csv.NewReader(dec)
	if p.Delimiter != 0 {
		r.Comma = p.Delimiter
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	r.TrimLeadingSpace = p.TrimSpace && p.Delimiter != ' ' && p.Delimiter != '\t'

	return &Rows{
		rc:      rc,
		r:       r,
		width:   len(p.ColumnNames),
		trim:    p.TrimSpace,
		skipHdr: p.HasHeader,
	}, nil
}

// Next returns the next data row, or io.EOF after the last one. Per-record
// problems are reported through Row.Err; a returned error means the
// underlying reader failed and the stream cannot continue.
func (rs *Rows) Next() (Row, error) {
	rec, err := rs.r.Read()
	if err == io.EOF {
		return Row{}, io.EOF
	}
	var perr *csv.ParseError
	if err != nil && !errors.As(err, &perr) {
		return Row{}, fmt.Errorf("probe: read rows: %w", err)
	}
	if rs.skipHdr {
		rs.skipHdr = false
		return rs.Next()
	}

	row := Row{Index: rs.next}
	rs.next++
	if err != nil {
		row.Line = perr.StartLine
		row.Fields = rs.copyFields(rec)
		row.Err = fmt.Errorf("malformed record: %w", err)
		return row, nil
	}
	row.Line, _ = rs.r.FieldPos(0)
	row.Fields = rs.copyFields(rec)
	if len(rec) > rs.width {
		row.Err = fmt.Errorf("expected %d fields, got %d", rs.width, len(rec))
		return row, nil
	}
	for len(row.Fields) < rs.width {
		row.Fields = append(row.Fields, "")
	}
	return row, nil
}

func (rs *Rows) copyFields(rec []string) []string {
	out := make([]string, len(rec), max(len(rec), rs.width))
	for i, v := range rec {
		if rs.trim {
			v = strings.TrimSpace(v)
		}
		out[i] = v
	}
	return out
}

// Close releases the underlying file.
func (rs *Rows) Close() error {
	return rs.rc.Close()
}
