package etlerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_FormatAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("duplicate key")
	e := Wrap(KindRowInsert, cause, "insert row", map[string]any{"row_index": 7, "batch": 2})

	if got, want := e.Error(), "row_insert_error - insert row: duplicate key - Details: batch=2, row_index=7"; got != want {
		t.Fatalf("Error()=%q; want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Fatalf("errors.Is(e, cause)=false; want true")
	}
	if got := e.Text(); got != "insert row: duplicate key" {
		t.Fatalf("Text()=%q", got)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", New(KindTableExists, "exists", nil), KindTableExists},
		{"wrapped", fmt.Errorf("loader: %w", New(KindEmptySample, "empty", nil)), KindEmptySample},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf()=%q; want %q", got, tc.want)
			}
		})
	}
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	base := New(KindBulkInsert, "batch failed", map[string]any{"rows": 10})
	derived := base.With("batch_error", "x")

	if _, ok := base.Details["batch_error"]; ok {
		t.Fatalf("base details mutated: %v", base.Details)
	}
	if derived.Details["rows"] != 10 || derived.Details["batch_error"] != "x" {
		t.Fatalf("derived details=%v", derived.Details)
	}
	if !strings.HasPrefix(derived.Error(), "bulk_insert_error - batch failed") {
		t.Fatalf("derived.Error()=%q", derived.Error())
	}
}
