package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"csvload/internal/datasource"
)

var _ datasource.Source = (*Remote)(nil)

const body = "id,name\n1,Ann\n2,Bob\n"

func TestRemoteOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	r := NewRemote(nil, srv.URL+"/exports/people.csv")
	for i := 0; i < 2; i++ {
		rc, err := r.Open(context.Background())
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if string(b) != body {
			t.Fatalf("Open #%d body = %q", i, b)
		}
	}
}

func TestRemoteReadHead(t *testing.T) {
	t.Parallel()

	ranges := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case ranges <- r.Header.Get("Range"):
		default:
		}
		// Range is ignored; the client must still cap the read.
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	b, err := NewRemote(nil, srv.URL).ReadHead(context.Background(), 7)
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if string(b) != "id,name" {
		t.Fatalf("head = %q", b)
	}
	if got := <-ranges; got != "bytes=0-6" {
		t.Fatalf("Range = %q", got)
	}
	if _, err := NewRemote(nil, srv.URL).ReadHead(context.Background(), 0); err == nil {
		t.Fatal("expected error for n=0")
	}
}

func TestRemoteReadHead_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRemote(nil, "http://127.0.0.1:1/x.csv").ReadHead(ctx, 10); err == nil {
		t.Fatal("expected error on canceled context")
	}
}

func TestRemoteBaseName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://example.com/data/customers.csv":       "customers",
		"https://example.com/data/Orders%202024.csv?x": "Orders 2024",
		"https://example.com/dump":                     "dump",
	}
	for in, want := range tests {
		if got := NewRemote(nil, in).BaseName(); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}

	a := NewRemote(nil, "https://example.com/?q=1").BaseName()
	b := NewRemote(nil, "https://example.com/?q=1").BaseName()
	if a != b || !strings.HasPrefix(a, "url_") {
		t.Fatalf("hashed names %q %q", a, b)
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()
	for s, want := range map[string]bool{
		"https://example.com/a.csv": true,
		"http://localhost:8080/a":   true,
		"ftp://example.com/a.csv":   false,
		"/data/a.csv":               false,
		"a.csv":                     false,
		"http:///nohost":            false,
	} {
		if got := IsURL(s); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", s, got, want)
		}
	}
}
