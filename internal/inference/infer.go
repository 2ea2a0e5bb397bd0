// Package inference classifies every column of a row sample into a semantic
// schema.Kind.
//
// Per column, in order: an all-absent column is nullable Text; a column whose
// values all fit a numeric, boolean or timestamp storage tag maps through a
// fixed Tag → Kind table; anything else is textual and is matched against
// date, time, email and phone patterns on a small deterministic sub-sample,
// falling back to a VarChar/Text/LongText bucket by maximum length.
package inference

import (
	"log"
	"math/rand/v2"
	"regexp"
	"unicode/utf8"

	"csvload/internal/etlerr"
	"csvload/internal/probe"
	"csvload/internal/schema"

	"github.com/zeebo/xxh3"
)

// DefaultSubSample is the number of values tested against structured
// patterns.
const DefaultSubSample = 10

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),   // YYYY-MM-DD
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),   // MM/DD/YYYY or DD/MM/YYYY
		regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),   // MM-DD-YYYY or DD-MM-YYYY
		regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`), // DD.MM.YYYY or MM.DD.YYYY
	}
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`),
		regexp.MustCompile(`^\d{2}:\d{2}$`),
	}
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\(\)-]{7,20}$`)
)

// Length buckets for textual columns.
var varcharBuckets = []int{10, 50, 100, 255}

const textLimit = 1000

// Options tune inference. The zero value uses the defaults.
type Options struct {
	// SubSample is the number of values tested against structured patterns.
	SubSample int
	// Tags declares the storage tag of a column by name, skipping detection.
	Tags map[string]Tag
}

// Infer returns one profile per sample column, in column order.
func Infer(s probe.Sample) ([]schema.ColumnProfile, error) {
	return InferWith(s, Options{})
}

// InferWith is Infer with explicit options.
func InferWith(s probe.Sample, opt Options) ([]schema.ColumnProfile, error) {
	if len(s.Columns) == 0 {
		return nil, etlerr.New(etlerr.KindEmptySample, "sample has no columns", nil)
	}
	if len(s.Rows) == 0 {
		return nil, etlerr.New(etlerr.KindEmptySample, "sample has no rows",
			map[string]any{"columns": len(s.Columns)})
	}
	if opt.SubSample <= 0 {
		opt.SubSample = DefaultSubSample
	}

	out := make([]schema.ColumnProfile, len(s.Columns))
	for i, name := range s.Columns {
		tag, declared := opt.Tags[name]
		out[i] = inferColumn(name, s.Column(i), tag, declared, opt.SubSample)
		log.Printf("inference: column=%q kind=%s nullable=%t", name, out[i].TypeString(), out[i].Nullable)
	}
	return out, nil
}

func inferColumn(name string, values []string, tag Tag, declared bool, subSample int) schema.ColumnProfile {
	p := schema.ColumnProfile{Name: name}

	present := make([]string, 0, len(values))
	for _, v := range values {
		if probe.IsAbsent(v) {
			p.Nullable = true
			continue
		}
		present = append(present, v)
	}
	if len(present) == 0 {
		p.Kind = schema.KindText
		p.Nullable = true
		return p
	}

	if !declared || tag < 0 || int(tag) >= len(tagKinds) {
		tag = DetectTag(present)
	}
	m := tagKinds[tag]
	if !m.textual {
		p.Kind, p.Unsigned, p.Double = m.kind, m.unsigned, m.double
		switch {
		case tag == TagInt64 && fitsInt32(present):
			p.Kind = schema.KindInteger
		case tag == TagDateTime:
			p.Layout = selectBestLayout(present, TimestampLayouts, timestampLayoutPreference)
		}
		return p
	}

	sub := subSampleOf(name, present, subSample)
	if allMatchAny(sub, datePatterns) {
		if lay := selectBestLayout(present, DateLayouts, dateLayoutPreference); lay != "" {
			p.Kind, p.Layout = schema.KindDate, lay
			return p
		}
	}
	if allMatchAny(sub, timePatterns) {
		if lay := selectBestLayout(present, TimeLayouts, noPreference); lay != "" {
			p.Kind, p.Layout = schema.KindTime, lay
			return p
		}
	}
	if allMatchAny(sub, []*regexp.Regexp{emailPattern}) {
		p.Kind, p.Length = schema.KindEmail, schema.EmailLength
		return p
	}
	if allMatchAny(sub, []*regexp.Regexp{phonePattern}) {
		p.Kind, p.Length = schema.KindPhone, schema.PhoneLength
		return p
	}

	longest := 0
	for _, v := range present {
		longest = max(longest, utf8.RuneCountInString(v))
	}
	p.Kind, p.Length = lengthKind(longest)
	return p
}

// lengthKind buckets a maximum rune length.
func lengthKind(n int) (schema.Kind, int) {
	for _, b := range varcharBuckets {
		if n <= b {
			return schema.KindVarChar, b
		}
	}
	if n <= textLimit {
		return schema.KindText, 0
	}
	return schema.KindLongText, 0
}

// subSampleOf picks up to n values in a pseudo-random order seeded by the
// column name, so repeated runs test the same values.
func subSampleOf(name string, values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	seed := xxh3.HashString(name)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := r.Perm(len(values))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// allMatchAny reports whether every value matches at least one pattern.
func allMatchAny(values []string, patterns []*regexp.Regexp) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		ok := false
		for _, re := range patterns {
			if re.MatchString(v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
