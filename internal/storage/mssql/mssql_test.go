package mssql

import (
	"net/url"
	"testing"
	"time"

	"csvload/internal/storage"
)

func TestDSN_FromFields(t *testing.T) {
	t.Parallel()

	dsn, err := DSN(storage.Config{
		Host:     "sql.internal",
		User:     "loader",
		Password: "p@ss word",
		Database: "imports",
		Params:   map[string]string{"encrypt": "disable"},
	})
	if err != nil {
		t.Fatalf("DSN err=%v", err)
	}
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", dsn, err)
	}
	if u.Scheme != "sqlserver" || u.Host != "sql.internal:1433" {
		t.Fatalf("url=%+v", u)
	}
	if pw, _ := u.User.Password(); pw != "p@ss word" {
		t.Fatalf("password=%q", pw)
	}
	if got := u.Query().Get("database"); got != "imports" {
		t.Fatalf("database=%q", got)
	}
	if got := u.Query().Get("encrypt"); got != "disable" {
		t.Fatalf("encrypt=%q", got)
	}
}

func TestToCopyVal(t *testing.T) {
	t.Parallel()

	got := toCopyVal(storage.TimeOfDay{Hour: 7, Minute: 15})
	want := time.Date(1, 1, 1, 7, 15, 0, 0, time.UTC)
	if tm, ok := got.(time.Time); !ok || !tm.Equal(want) {
		t.Fatalf("TimeOfDay → %v; want %v", got, want)
	}
	if got := toCopyVal(uint64(18446744073709551615)); got != "18446744073709551615" {
		t.Fatalf("uint64 → %v", got)
	}
	if got := toCopyVal(nil); got != nil {
		t.Fatalf("nil → %v", got)
	}
	if got := toCopyVal("x"); got != "x" {
		t.Fatalf("string → %v", got)
	}
}
