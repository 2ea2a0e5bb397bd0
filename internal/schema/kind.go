// Package schema holds the dialect-neutral description of a target table:
// the semantic kind of every column, its nullability, and the table-level
// primary key and indexes. Compile turns inferred column profiles into a
// TableSchema; rendering it as SQL is the job of package ddl.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the semantic category of a column, independent of any SQL dialect.
// The set is closed; KindUnknown is the zero value and never a valid result
// of inference.
type Kind int

const (
	KindUnknown Kind = iota
	KindInteger
	KindBigInt
	KindSmallInt
	KindFloat
	KindBoolean
	KindDate
	KindTime
	KindDateTime
	KindEmail
	KindPhone
	KindVarChar
	KindText
	KindLongText
)

var kindNames = [...]string{
	KindUnknown:  "Unknown",
	KindInteger:  "Integer",
	KindBigInt:   "BigInt",
	KindSmallInt: "SmallInt",
	KindFloat:    "Float",
	KindBoolean:  "Boolean",
	KindDate:     "Date",
	KindTime:     "Time",
	KindDateTime: "DateTime",
	KindEmail:    "Email",
	KindPhone:    "Phone",
	KindVarChar:  "VarChar",
	KindText:     "Text",
	KindLongText: "LongText",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the inferable kinds.
func (k Kind) Valid() bool { return k > KindUnknown && k <= KindLongText }

// MarshalText renders the kind name, so JSON summaries stay readable.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts a kind name, case-insensitively.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if strings.EqualFold(n, string(b)) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("schema: unknown kind %q", b)
}

// Fixed lengths of the string-backed structured kinds.
const (
	EmailLength = 100
	PhoneLength = 20
)

// ColumnProfile is the inferred description of one source column.
//
// Length applies to VarChar (and is fixed for Email and Phone). Unsigned
// applies to Integer and BigInt, Double to Float. Layout is the Go time
// layout that parsed the sampled Date, Time or DateTime values.
type ColumnProfile struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Length   int    `json:"length,omitempty"`
	Unsigned bool   `json:"unsigned,omitempty"`
	Double   bool   `json:"double,omitempty"`
	Layout   string `json:"layout,omitempty"`
	Nullable bool   `json:"nullable"`
}

// TypeString renders the kind with its parameters, e.g. "VarChar(50)" or
// "BigInt unsigned".
func (c ColumnProfile) TypeString() string {
	switch c.Kind {
	case KindVarChar, KindEmail, KindPhone:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Length)
	case KindInteger, KindBigInt:
		if c.Unsigned {
			return c.Kind.String() + " unsigned"
		}
	case KindFloat:
		if c.Double {
			return "Double"
		}
	}
	return c.Kind.String()
}
