package schema

import (
	"fmt"
	"strings"
)

// SyntheticKeyName is the preferred name of a generated primary key column.
const SyntheticKeyName = "id"

// Column is one column of a TableSchema: the source header it was read from,
// its SQL identifier, and its inferred profile.
type Column struct {
	Source     string        `json:"source"`
	Name       string        `json:"name"`
	Profile    ColumnProfile `json:"profile"`
	PrimaryKey bool          `json:"primary_key,omitempty"`
}

// TableSchema is the compiled definition of the target table.
//
// Columns[i] corresponds to source column i of the file; the loader relies on
// this to bind row fields positionally. A generated key column, when present,
// lives in Synthetic and is rendered before Columns in DDL but never bound
// to file data.
type TableSchema struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey string   `json:"primary_key,omitempty"`
	Indexes    []string `json:"indexes,omitempty"`
	Synthetic  *Column  `json:"synthetic_key,omitempty"`
}

// ColumnNames returns the SQL identifiers of the data columns in order.
func (t TableSchema) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Options are the caller's table-level requests.
type Options struct {
	// Table is the raw table name; it is sanitised.
	Table string
	// PrimaryKey names the requested key column by source or SQL name. When
	// it matches no column, a leading auto-increment key is generated.
	PrimaryKey string
	// Indexes names columns to index. Unknown names and the key are skipped.
	Indexes []string
}

// Compile builds a TableSchema from profiles, which must be in source order.
func Compile(profiles []ColumnProfile, opt Options) (TableSchema, error) {
	if len(profiles) == 0 {
		return TableSchema{}, fmt.Errorf("schema: no column profiles to compile")
	}
	for i, p := range profiles {
		if !p.Kind.Valid() {
			return TableSchema{}, fmt.Errorf("schema: column %d (%q) has no inferred kind", i, p.Name)
		}
	}
	table := Sanitize(opt.Table)
	if table == "" || strings.Trim(table, "_") == "" {
		return TableSchema{}, fmt.Errorf("schema: table name %q is empty after sanitising", opt.Table)
	}

	sources := make([]string, len(profiles))
	for i, p := range profiles {
		sources[i] = p.Name
	}
	names := uniqueNames(sources)

	ts := TableSchema{Name: table, Columns: make([]Column, len(profiles))}
	for i, p := range profiles {
		ts.Columns[i] = Column{Source: p.Name, Name: names[i], Profile: p}
	}

	if pk := strings.TrimSpace(opt.PrimaryKey); pk != "" {
		if i := ts.lookup(pk); i >= 0 {
			ts.Columns[i].PrimaryKey = true
			ts.PrimaryKey = ts.Columns[i].Name
		} else {
			seen := make(map[string]bool, len(names))
			for _, n := range names {
				seen[strings.ToLower(n)] = true
			}
			name := claim(seen, SyntheticKeyName)
			ts.Synthetic = &Column{
				Name:       name,
				Profile:    ColumnProfile{Name: name, Kind: KindInteger},
				PrimaryKey: true,
			}
			ts.PrimaryKey = name
		}
	}

	added := map[string]bool{}
	for _, idx := range opt.Indexes {
		i := ts.lookup(strings.TrimSpace(idx))
		if i < 0 {
			continue
		}
		name := ts.Columns[i].Name
		if name == ts.PrimaryKey || added[name] {
			continue
		}
		added[name] = true
		ts.Indexes = append(ts.Indexes, name)
	}
	return ts, nil
}

// lookup finds a data column by exact source name, then by SQL name, then by
// sanitised form of want.
func (t TableSchema) lookup(want string) int {
	if want == "" {
		return -1
	}
	for i, c := range t.Columns {
		if c.Source == want {
			return i
		}
	}
	for i, c := range t.Columns {
		if c.Name == want {
			return i
		}
	}
	s := Sanitize(want)
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, s) {
			return i
		}
	}
	return -1
}

// Renderer turns a TableSchema into the statements that create it.
type Renderer interface {
	CreateTable(TableSchema) ([]string, error)
}

// DDL renders ts with r. The first statement is always the CREATE TABLE.
func DDL(ts TableSchema, r Renderer) ([]string, error) {
	if len(ts.Columns) == 0 {
		return nil, fmt.Errorf("schema: table %q has no columns", ts.Name)
	}
	return r.CreateTable(ts)
}
