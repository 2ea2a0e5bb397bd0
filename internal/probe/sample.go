package probe

import (
	"context"
	"io"
	"strings"

	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
)

// DefaultSampleRows is the number of data rows read for type inference.
const DefaultSampleRows = 1000

// naTokens are the field values read as absent, besides the empty string.
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// IsAbsent reports whether a raw field value stands for a missing value.
func IsAbsent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := naTokens[v]
	return ok
}

// Sample is a bounded, column-aligned slice of the first data rows.
type Sample struct {
	Columns []string
	Rows    [][]string
}

// Column returns the values of column i across all sampled rows.
func (s Sample) Column(i int) []string {
	out := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out
}

// ColumnByName returns the values of the first column named name.
func (s Sample) ColumnByName(name string) ([]string, bool) {
	for i, c := range s.Columns {
		if c == name {
			return s.Column(i), true
		}
	}
	return nil, false
}

// ReadSample reads up to n data rows of path. Rows that cannot be aligned
// with the profile columns are skipped so they do not skew inference.
func ReadSample(ctx context.Context, path string, p Profile, n int) (Sample, error) {
	return ReadSourceSample(ctx, file.NewLocal(path), p, n)
}

// ReadSourceSample is ReadSample over an arbitrary source.
func ReadSourceSample(ctx context.Context, src datasource.Source, p Profile, n int) (Sample, error) {
	if n <= 0 {
		n = DefaultSampleRows
	}
	rows, err := OpenSourceRows(ctx, src, p)
	if err != nil {
		return Sample{}, err
	}
	defer rows.Close()

	s := Sample{
		Columns: append([]string(nil), p.ColumnNames...),
		Rows:    make([][]string, 0, min(n, 1024)),
	}
	for len(s.Rows) < n {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Sample{}, sourceError(src, err)
		}
		if row.Err != nil {
			continue
		}
		s.Rows = append(s.Rows, row.Fields)
	}
	return s, nil
}
