// Package etlerr defines the typed failure used across the load pipeline.
//
// Fatal conditions (missing source file, pre-existing table under the "fail"
// policy, empty sample) and isolated row failures are both reported as *Error
// values so that callers can switch on a stable Kind label instead of parsing
// driver-specific messages.
package etlerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind is a stable, machine-readable failure label. It is also the key of the
// error-kind counts in the run summary and the error_type column of the
// dead-letter file.
type Kind string

const (
	KindFileNotFound   Kind = "file_not_found"
	KindFileUnreadable Kind = "file_unreadable"
	KindTableExists    Kind = "table_exists"
	KindEmptySample    Kind = "empty_sample"
	KindSchema         Kind = "schema_error"
	KindTable          Kind = "table_error"
	KindBulkInsert     Kind = "bulk_insert_error"
	KindRowInsert      Kind = "row_insert_error"
	KindRowParse       Kind = "row_parse_error"
	KindConfig         Kind = "config_error"
	KindUnknown        Kind = "unknown_error"
)

// Error is a failure carrying a kind label, a message, and a structured detail
// map. Err, when set, is the underlying cause and is reachable via errors.Unwrap.
type Error struct {
	Kind      Kind
	Message   string
	Details   map[string]any
	Timestamp time.Time
	Err       error
}

// New returns an *Error stamped with the current time.
func New(kind Kind, msg string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: msg, Details: details, Timestamp: time.Now()}
}

// Wrap returns an *Error whose message is msg followed by the cause.
func Wrap(kind Kind, err error, msg string, details map[string]any) *Error {
	e := New(kind, msg, details)
	e.Err = err
	return e
}

// Error renders "kind - message[: cause] - Details: k=v, ...". Detail keys are
// sorted so the text is stable.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" - ")
	b.WriteString(e.Text())
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" - Details: ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
	}
	return b.String()
}

// Text is the message with the cause appended, without kind or details. It is
// what the dead-letter file stores in error_message.
func (e *Error) Text() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of e with key=value added to its details.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// KindOf reports the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Record is the retained form of a failure in run statistics.
type Record struct {
	Kind      Kind           `json:"error_type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToRecord converts e into a Record.
func (e *Error) ToRecord() Record {
	return Record{Kind: e.Kind, Message: e.Text(), Details: e.Details, Timestamp: e.Timestamp}
}
