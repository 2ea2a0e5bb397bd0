package schema

import (
	"strings"
	"testing"
)

func profiles(names ...string) []ColumnProfile {
	out := make([]ColumnProfile, len(names))
	for i, n := range names {
		out[i] = ColumnProfile{Name: n, Kind: KindVarChar, Length: 50}
	}
	return out
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"signup_date", "signup_date"},
		{"First Name", "First_Name"},
		{"price ($)", "price_"},
		{"a--b  c", "a_b_c"},
		{"2024 total", "col_2024_total"},
		{"Název", "N_zev"},
		{"café", "caf_"},
		{" name", "_name"},
		{"  id ", "_id_"},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q)=%q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestTableNameFromFile(t *testing.T) {
	t.Parallel()

	if got := TableNameFromFile("My Customers-2024"); got != "my_customers_2024" {
		t.Fatalf("TableNameFromFile=%q", got)
	}
	if got := TableNameFromFile("2024-export"); got != "col_2024_export" {
		t.Fatalf("TableNameFromFile=%q", got)
	}
}

func TestCompile_PreservesSourceOrder(t *testing.T) {
	t.Parallel()

	src := []string{"zeta", "Alpha", "mid dle", "1st"}
	ts, err := Compile(profiles(src...), Options{Table: "t"})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if len(ts.Columns) != len(src) {
		t.Fatalf("len(Columns)=%d; want %d", len(ts.Columns), len(src))
	}
	for i, c := range ts.Columns {
		if c.Source != src[i] {
			t.Fatalf("Columns[%d].Source=%q; want %q", i, c.Source, src[i])
		}
	}
	if got := strings.Join(ts.ColumnNames(), ","); got != "zeta,Alpha,mid_dle,col_1st" {
		t.Fatalf("ColumnNames=%q", got)
	}
}

func TestCompile_DeduplicatesCollisions(t *testing.T) {
	t.Parallel()

	ts, err := Compile(profiles("a b", "a-b", "A_B", "c"), Options{Table: "t"})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if got := strings.Join(ts.ColumnNames(), ","); got != "a_b,a_b_2,A_B_3,c" {
		t.Fatalf("ColumnNames=%q; want a_b,a_b_2,A_B_3,c", got)
	}
}

func TestCompile_PrimaryKey(t *testing.T) {
	t.Parallel()

	t.Run("existing column", func(t *testing.T) {
		t.Parallel()
		ts, err := Compile(profiles("user id", "name"), Options{Table: "t", PrimaryKey: "user id"})
		if err != nil {
			t.Fatalf("Compile error: %v", err)
		}
		if ts.PrimaryKey != "user_id" || !ts.Columns[0].PrimaryKey || ts.Synthetic != nil {
			t.Fatalf("schema=%+v", ts)
		}
	})

	t.Run("missing column synthesizes key", func(t *testing.T) {
		t.Parallel()
		ts, err := Compile(profiles("name", "email"), Options{Table: "t", PrimaryKey: "nope"})
		if err != nil {
			t.Fatalf("Compile error: %v", err)
		}
		if ts.Synthetic == nil || ts.Synthetic.Name != "id" || ts.PrimaryKey != "id" {
			t.Fatalf("Synthetic=%+v PrimaryKey=%q", ts.Synthetic, ts.PrimaryKey)
		}
		if len(ts.Columns) != 2 {
			t.Fatalf("synthetic key must not shift data columns: %v", ts.ColumnNames())
		}
	})

	t.Run("synthesized key avoids taken id", func(t *testing.T) {
		t.Parallel()
		ts, err := Compile(profiles("ID", "name"), Options{Table: "t", PrimaryKey: "pk"})
		if err != nil {
			t.Fatalf("Compile error: %v", err)
		}
		if ts.Synthetic == nil || ts.Synthetic.Name != "id_2" {
			t.Fatalf("Synthetic=%+v; want id_2", ts.Synthetic)
		}
	})
}

func TestCompile_IndexesSkipUnknownAndKey(t *testing.T) {
	t.Parallel()

	ts, err := Compile(profiles("id", "email", "city"), Options{
		Table:      "t",
		PrimaryKey: "id",
		Indexes:    []string{"email", "missing", "id", "city", "email"},
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if got := strings.Join(ts.Indexes, ","); got != "email,city" {
		t.Fatalf("Indexes=%q; want email,city", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Compile(nil, Options{Table: "t"}); err == nil {
		t.Fatalf("Compile(nil) error=nil; want error")
	}
	if _, err := Compile([]ColumnProfile{{Name: "a"}}, Options{Table: "t"}); err == nil {
		t.Fatalf("Compile(unknown kind) error=nil; want error")
	}
	if _, err := Compile(profiles("a"), Options{Table: "!!!"}); err == nil {
		t.Fatalf("Compile(bad table) error=nil; want error")
	}
}

func TestColumnProfile_TypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    ColumnProfile
		want string
	}{
		{ColumnProfile{Kind: KindVarChar, Length: 50}, "VarChar(50)"},
		{ColumnProfile{Kind: KindBigInt, Unsigned: true}, "BigInt unsigned"},
		{ColumnProfile{Kind: KindFloat, Double: true}, "Double"},
		{ColumnProfile{Kind: KindDate}, "Date"},
	}
	for _, tc := range tests {
		if got := tc.p.TypeString(); got != tc.want {
			t.Fatalf("TypeString()=%q; want %q", got, tc.want)
		}
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	for k := KindInteger; k <= KindLongText; k++ {
		b, _ := k.MarshalText()
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Fatalf("round trip %s: got %s, %v", k, got, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("Decimal")); err == nil {
		t.Fatal("unknown kind: want error")
	}
}
