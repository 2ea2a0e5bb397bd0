package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushes    int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() { SetBackend(orig) })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("customers", "ANALYZE", nil, 2*time.Second)
	RecordStep("customers", "ENSURE_TABLE", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls counters=%d histograms=%d; want 2/2", len(fb.counters), len(fb.histograms))
	}
	c0 := fb.counters[0]
	if c0.name != StateTotal || c0.value != 1 {
		t.Fatalf("counter[0]=%#v", c0)
	}
	if c0.labels["table"] != "customers" || c0.labels["state"] != "ANALYZE" || c0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels=%v", c0.labels)
	}
	if fb.counters[1].labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want failure", fb.counters[1].labels["status"])
	}
	if h := fb.histograms[1]; h.name != StateDurationSeconds || h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1]=%#v; want ~1.5s", h)
	}
}

func TestRecordRowAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("t", "loaded", 998)
	RecordRow("t", "failed", 0) // ignored
	RecordRow("t", "dead_lettered", 2)
	RecordBatches("t", "bulk", 1)
	RecordBatches("t", "row", 0) // ignored

	if len(fb.counters) != 3 {
		t.Fatalf("counter calls=%d; want 3", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RowsTotal || c.value != 998 || c.labels["kind"] != "loaded" {
		t.Fatalf("counter[0]=%#v", c)
	}
	if c := fb.counters[1]; c.labels["kind"] != "dead_lettered" || c.value != 2 {
		t.Fatalf("counter[1]=%#v", c)
	}
	if c := fb.counters[2]; c.name != BatchesTotal || c.labels["mode"] != "bulk" {
		t.Fatalf("counter[2]=%#v", c)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes=%d; want 1", fb.flushes)
	}

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
