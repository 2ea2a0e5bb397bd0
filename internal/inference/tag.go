package inference

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"csvload/internal/schema"
)

// Tag is the storage-level type of a column: the physical representation its
// values fit, before any semantic classification. The set is closed.
type Tag int

const (
	TagObject Tag = iota
	TagInt8
	TagInt16
	TagInt32
	TagInt64
	TagUint8
	TagUint16
	TagUint32
	TagUint64
	TagFloat32
	TagFloat64
	TagBool
	TagDateTime
)

var tagNames = [...]string{
	TagObject:   "object",
	TagInt8:     "int8",
	TagInt16:    "int16",
	TagInt32:    "int32",
	TagInt64:    "int64",
	TagUint8:    "uint8",
	TagUint16:   "uint16",
	TagUint32:   "uint32",
	TagUint64:   "uint64",
	TagFloat32:  "float32",
	TagFloat64:  "float64",
	TagBool:     "bool",
	TagDateTime: "datetime",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagNames[t]
}

// ParseTag resolves a tag name such as "int64" or "datetime".
func ParseTag(s string) (Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range tagNames {
		if n == s {
			return Tag(i), nil
		}
	}
	return TagObject, fmt.Errorf("inference: unknown tag %q", s)
}

// mapping is the semantic result of a storage tag. textual tags continue with
// pattern and length classification.
type mapping struct {
	kind     schema.Kind
	unsigned bool
	double   bool
	textual  bool
}

// tagKinds is total over Tag; TestTagKindsTotal guards new entries.
var tagKinds = [...]mapping{
	TagObject:   {kind: schema.KindText, textual: true},
	TagInt8:     {kind: schema.KindSmallInt},
	TagInt16:    {kind: schema.KindSmallInt},
	TagInt32:    {kind: schema.KindInteger},
	TagInt64:    {kind: schema.KindBigInt},
	TagUint8:    {kind: schema.KindSmallInt},
	TagUint16:   {kind: schema.KindInteger},
	TagUint32:   {kind: schema.KindInteger, unsigned: true},
	TagUint64:   {kind: schema.KindBigInt, unsigned: true},
	TagFloat32:  {kind: schema.KindFloat},
	TagFloat64:  {kind: schema.KindFloat, double: true},
	TagBool:     {kind: schema.KindBoolean},
	TagDateTime: {kind: schema.KindDateTime},
}

// DetectTag returns the narrowest tag every value fits, the way a columnar
// CSV reader assigns dtypes: int64, then uint64, float64, bool, datetime,
// otherwise object. values must already exclude absent entries.
func DetectTag(values []string) Tag {
	if len(values) == 0 {
		return TagObject
	}
	switch {
	case allMatch(values, isInt):
		return TagInt64
	case allMatch(values, isUint):
		return TagUint64
	case allMatch(values, isFloat):
		return TagFloat64
	case allMatch(values, IsBool):
		return TagBool
	case allMatch(values, isTimestamp):
		return TagDateTime
	}
	return TagObject
}

// fitsInt32 reports whether every int64 value also fits 32 bits.
func fitsInt32(values []string) bool {
	for _, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return false
		}
	}
	return true
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

func isUint(s string) bool {
	_, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// IsBool accepts common textual booleans. 1/0 are integers.
func IsBool(s string) bool {
	_, ok := ParseBool(s)
	return ok
}

// ParseBool maps a textual boolean to its value.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return false, false
}

func isTimestamp(s string) bool {
	st := strings.TrimSpace(s)
	for _, layout := range TimestampLayouts {
		if parses(layout, st) {
			return true
		}
	}
	return false
}
