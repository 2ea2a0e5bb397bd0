package mysql

import (
	"strings"
	"testing"

	"csvload/internal/storage"

	"github.com/go-sql-driver/mysql"
)

func TestDSN_FromFields(t *testing.T) {
	t.Parallel()

	dsn, err := DSN(storage.Config{
		Host:     "db.internal",
		User:     "loader",
		Password: "s3cret",
		Database: "imports",
		Params:   map[string]string{"collation": "utf8mb4_unicode_ci"},
	})
	if err != nil {
		t.Fatalf("DSN err=%v", err)
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", dsn, err)
	}
	if mc.Addr != "db.internal:3306" || mc.User != "loader" || mc.Passwd != "s3cret" || mc.DBName != "imports" {
		t.Fatalf("parsed=%+v", mc)
	}
	if mc.Collation != "utf8mb4_unicode_ci" {
		t.Fatalf("collation=%q", mc.Collation)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Fatalf("dsn=%q; want charset=utf8mb4", dsn)
	}
}

func TestDSN_Explicit(t *testing.T) {
	t.Parallel()

	in := "u:p@tcp(127.0.0.1:3307)/x"
	got, err := DSN(storage.Config{DSN: in, Host: "ignored"})
	if err != nil || got != in {
		t.Fatalf("DSN=%q,%v; want %q", got, err, in)
	}
	if _, err := DSN(storage.Config{DSN: "u:p@tcp(127.0.0.1:3307"}); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}
