package loader

import (
	"testing"
	"time"

	"csvload/internal/probe"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

func TestConvertValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile schema.ColumnProfile
		in      string
		want    any
		wantErr bool
	}{
		{"absent", schema.ColumnProfile{Kind: schema.KindInteger}, "NULL", nil, false},
		{"int", schema.ColumnProfile{Kind: schema.KindInteger}, " 42 ", int64(42), false},
		{"bad int", schema.ColumnProfile{Kind: schema.KindSmallInt}, "4.2", nil, true},
		{"unsigned bigint", schema.ColumnProfile{Kind: schema.KindBigInt, Unsigned: true}, "18446744073709551615", uint64(18446744073709551615), false},
		{"unsigned int", schema.ColumnProfile{Kind: schema.KindInteger, Unsigned: true}, "4000000000", int64(4000000000), false},
		{"float", schema.ColumnProfile{Kind: schema.KindFloat, Double: true}, "1.5e3", 1500.0, false},
		{"bool", schema.ColumnProfile{Kind: schema.KindBoolean}, "Yes", true, false},
		{"bad bool", schema.ColumnProfile{Kind: schema.KindBoolean}, "maybe", nil, true},
		{"date", schema.ColumnProfile{Kind: schema.KindDate, Layout: "02/01/2006"}, "31/12/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"bad date", schema.ColumnProfile{Kind: schema.KindDate, Layout: "2006-01-02"}, "2023-13-45", nil, true},
		{"time", schema.ColumnProfile{Kind: schema.KindTime, Layout: "15:04"}, "08:30", storage.TimeOfDay{Hour: 8, Minute: 30}, false},
		{"datetime without layout", schema.ColumnProfile{Kind: schema.KindDateTime}, "2024-01-02 10:00:00", time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), false},
		{"varchar passthrough", schema.ColumnProfile{Kind: schema.KindVarChar, Length: 10}, "abc", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := convertValue(tt.profile, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("convertValue(%q) = %v; want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("convertValue(%q): %v", tt.in, err)
			}
			if ts, ok := tt.want.(time.Time); ok {
				if g, ok := got.(time.Time); !ok || !g.Equal(ts) {
					t.Fatalf("convertValue(%q) = %v; want %v", tt.in, got, ts)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("convertValue(%q) = %#v; want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConverterBatchReportsLine(t *testing.T) {
	c := newConverter(schema.TableSchema{Columns: []schema.Column{
		{Name: "n", Profile: schema.ColumnProfile{Name: "n", Kind: schema.KindInteger}},
	}})
	_, err := c.batch([]probe.Row{{Line: 2, Fields: []string{"1"}}, {Line: 3, Fields: []string{"x"}}})
	if err == nil || err.Error() != `line 3: column n: invalid integer "x"` {
		t.Fatalf("err=%v", err)
	}
	if _, err := c.row([]string{"1", "2"}); err == nil {
		t.Fatal("row with wrong width: want error")
	}
}
