// Package probe recovers the physical layout of a delimited text file: its
// character encoding, field delimiter, and header row.
//
// Analyze reads a bounded byte sample from the start of the file and runs
// three detectors in order (encoding → delimiter → header). Every detector
// returns a Result that either carries the detected value or marks that a
// documented default was substituted; detection never aborts the run. Only a
// missing or unreadable file is fatal.
//
// The resulting Profile is then used by ReadSample (bounded row sample for
// type inference) and OpenRows (streaming reader for the full load).
package probe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
	"csvload/internal/etlerr"

	"github.com/zeebo/xxh3"
)

const (
	// DefaultEncodingSampleBytes is the number of leading bytes fed to the
	// encoding detector.
	DefaultEncodingSampleBytes = 10000
	// DefaultSampleLines is the number of lines the delimiter and header
	// sniffers look at.
	DefaultSampleLines = 5
	// DefaultMinConfidence is the detector confidence below which the
	// encoding falls back to UTF-8.
	DefaultMinConfidence = 0.7
	// DefaultEncoding is used whenever encoding detection is unreliable.
	DefaultEncoding = "utf-8"
)

// Options tune detection. The zero value uses the defaults above and runs
// every detector.
type Options struct {
	EncodingSampleBytes int
	SampleLines         int
	MinConfidence       float64

	// Encoding, Delimiter and NoHeader override the matching detector.
	Encoding  string
	Delimiter rune
	NoHeader  bool

	// KeepSpace disables trimming of surrounding whitespace in fields.
	KeepSpace bool

	// Detector replaces the statistical encoding detector (tests).
	Detector Detector
}

func (o Options) withDefaults() Options {
	if o.EncodingSampleBytes <= 0 {
		o.EncodingSampleBytes = DefaultEncodingSampleBytes
	}
	if o.SampleLines <= 0 {
		o.SampleLines = DefaultSampleLines
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.Detector == nil {
		o.Detector = NewCharsetDetector()
	}
	return o
}

// Result is the outcome of a single detector: the detected Value, or the
// default that replaced it when Degraded is set. Reason explains the fallback.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

func detected[T any](v T) Result[T] { return Result[T]{Value: v} }

func degraded[T any](v T, format string, args ...any) Result[T] {
	return Result[T]{Value: v, Degraded: true, Reason: fmt.Sprintf(format, args...)}
}

// Fallback records that a detection step substituted its default.
type Fallback struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// Profile is the structural description of a file. It is computed once per
// file and not modified afterwards; use Clone before altering a copy.
type Profile struct {
	Encoding       string  `json:"encoding"`
	Confidence     float64 `json:"confidence"`
	Delimiter      rune    `json:"delimiter"`
	HasHeader      bool    `json:"has_header"`
	HeaderRowIndex *int    `json:"header_row_index,omitempty"`
	// ColumnNames has exactly as many entries as the first non-blank sampled
	// line has fields.
	ColumnNames []string `json:"column_names"`

	Fallbacks    []Fallback `json:"fallbacks,omitempty"`
	SampleBytes  int        `json:"sample_bytes"`
	SampleDigest uint64     `json:"sample_digest"`
	TrimSpace    bool       `json:"trim_space"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	cp := p
	cp.ColumnNames = append([]string(nil), p.ColumnNames...)
	cp.Fallbacks = append([]Fallback(nil), p.Fallbacks...)
	if p.HeaderRowIndex != nil {
		idx := *p.HeaderRowIndex
		cp.HeaderRowIndex = &idx
	}
	return cp
}

// Analyze builds the Profile of the file at path.
func Analyze(ctx context.Context, path string, opt Options) (Profile, error) {
	return AnalyzeSource(ctx, file.NewLocal(path), opt)
}

// AnalyzeSource builds the Profile of src. The only errors it returns are
// *etlerr.Error values of kind file_not_found or file_unreadable.
func AnalyzeSource(ctx context.Context, src datasource.Source, opt Options) (Profile, error) {
	opt = opt.withDefaults()

	head, err := src.ReadHead(ctx, opt.EncodingSampleBytes)
	if err != nil {
		return Profile{}, sourceError(src, err)
	}
	truncated := len(head) == opt.EncodingSampleBytes

	p := Profile{
		SampleBytes:  len(head),
		SampleDigest: xxh3.Hash(head),
		TrimSpace:    !opt.KeepSpace,
	}

	enc := resolveEncoding(head, opt)
	p.Encoding, p.Confidence = enc.Value.Name, enc.Value.Confidence
	p.noteFallback("encoding", enc)

	text, err := decodeSample(head, p.Encoding, truncated)
	if err != nil {
		p.noteFallback("encoding", degraded(DefaultEncoding, "decode with %s: %v", p.Encoding, err))
		p.Encoding = DefaultEncoding
		text, _ = decodeSample(head, DefaultEncoding, truncated)
	}
	lines := sampleLines(text, opt.SampleLines)

	delim := resolveDelimiter(lines, opt)
	p.Delimiter = delim.Value
	p.noteFallback("delimiter", delim)

	hdr := resolveHeader(lines, p.Delimiter, opt)
	p.HasHeader = hdr.Value
	p.noteFallback("header", hdr)
	if p.HasHeader {
		idx := 0
		p.HeaderRowIndex = &idx
	}

	p.ColumnNames = columnNames(lines, p.Delimiter, p.HasHeader, p.TrimSpace)

	log.Printf("probe: encoding=%s confidence=%.2f delimiter=%q has_header=%t columns=%d fallbacks=%d",
		p.Encoding, p.Confidence, p.Delimiter, p.HasHeader, len(p.ColumnNames), len(p.Fallbacks))
	return p, nil
}

func (p *Profile) noteFallback(step string, r interface{ fallback() (bool, string) }) {
	if ok, reason := r.fallback(); ok {
		p.Fallbacks = append(p.Fallbacks, Fallback{Step: step, Reason: reason})
		log.Printf("probe: %s fallback: %s", step, reason)
	}
}

func (r Result[T]) fallback() (bool, string) { return r.Degraded, r.Reason }

// sourceError classifies an open/read failure as fatal.
func sourceError(src datasource.Source, err error) error {
	details := map[string]any{"source": src.BaseName()}
	switch s := src.(type) {
	case *file.Local:
		details["path"] = s.Path()
	case interface{ URL() string }:
		details["url"] = s.URL()
	}
	if errors.Is(err, os.ErrNotExist) {
		return etlerr.Wrap(etlerr.KindFileNotFound, err, "source file not found", details)
	}
	return etlerr.Wrap(etlerr.KindFileUnreadable, err, "source file unreadable", details)
}

// sampleLines splits text into at most n non-blank lines, without line
// terminators.
func sampleLines(text string, n int) []string {
	out := make([]string, 0, n)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}
