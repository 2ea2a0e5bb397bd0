package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"csvload/internal/inference"
	"csvload/internal/probe"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

// converter turns the raw fields of one row into driver values following
// the compiled column profiles.
type converter struct {
	cols []schema.ColumnProfile
}

func newConverter(ts schema.TableSchema) converter {
	cols := make([]schema.ColumnProfile, len(ts.Columns))
	for i, c := range ts.Columns {
		cols[i] = c.Profile
	}
	return converter{cols: cols}
}

// row converts fields. Absent values become nil.
func (c converter) row(fields []string) ([]any, error) {
	if len(fields) != len(c.cols) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(c.cols), len(fields))
	}
	out := make([]any, len(fields))
	for i, s := range fields {
		v, err := convertValue(c.cols[i], s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.cols[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// batch converts every row, stopping at the first failure.
func (c converter) batch(rows []probe.Row) ([][]any, error) {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		v, err := c.row(r.Fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.Line, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func convertValue(p schema.ColumnProfile, s string) (any, error) {
	if probe.IsAbsent(s) {
		return nil, nil
	}
	switch p.Kind {
	case schema.KindSmallInt, schema.KindInteger, schema.KindBigInt:
		t := strings.TrimSpace(s)
		if p.Unsigned {
			u, err := strconv.ParseUint(t, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid unsigned integer %q", s)
			}
			if p.Kind == schema.KindBigInt {
				return u, nil
			}
			return int64(u), nil
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return n, nil

	case schema.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return f, nil

	case schema.KindBoolean:
		b, ok := inference.ParseBool(s)
		if !ok {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return b, nil

	case schema.KindDate:
		return parseTime(s, p.Layout, inference.DateLayouts)

	case schema.KindDateTime:
		return parseTime(s, p.Layout, inference.TimestampLayouts)

	case schema.KindTime:
		t, err := parseTime(s, p.Layout, inference.TimeLayouts)
		if err != nil {
			return nil, err
		}
		return storage.TimeOfDayOf(t), nil
	}
	return s, nil
}

// parseTime parses s with layout, or with the first matching candidate when
// the profile carries no layout.
func parseTime(s, layout string, candidates []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid value %q for layout %s", s, layout)
		}
		return t, nil
	}
	for _, l := range candidates {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", s)
}
