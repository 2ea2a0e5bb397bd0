package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"csvload/internal/inference"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the config,
// e.g. "table.if_exists" or "csv.types.zip".
type Issue struct {
	Severity IssueSeverity `json:"severity"`
	Path     string        `json:"path"`
	Message  string        `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var knownKinds = map[string]struct{}{
	"mysql": {}, "mariadb": {},
	"postgres": {}, "postgresql": {}, "pg": {},
	"sqlite": {}, "sqlite3": {},
	"mssql": {}, "sqlserver": {},
}

// Validate lints cfg without mutating it.
func Validate(cfg Config) []Issue {
	var issues []Issue
	issues = append(issues, validateDatabase(cfg.Database)...)
	issues = append(issues, validateCSV(cfg.CSV)...)
	issues = append(issues, validateTable(cfg.Table)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	if strings.TrimSpace(cfg.DeadLetter.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "dead_letter.dir", "dead-letter directory must not be empty"})
	}
	return issues
}

func validateDatabase(db Database) []Issue {
	var issues []Issue
	kind := strings.ToLower(strings.TrimSpace(db.Kind))
	if kind == "" {
		return append(issues, Issue{SeverityError, "database.kind", "database.kind must not be empty"})
	}
	if _, ok := knownKinds[kind]; !ok {
		issues = append(issues, Issue{SeverityWarning, "database.kind",
			fmt.Sprintf("unknown database kind %q; ensure a matching backend is registered", db.Kind)})
	}

	if db.DSN != "" {
		return issues
	}
	switch kind {
	case "sqlite", "sqlite3":
		if db.Name == "" {
			issues = append(issues, Issue{SeverityError, "database.name", "sqlite requires a dsn or a database file name"})
		}
	default:
		if db.Host == "" {
			issues = append(issues, Issue{SeverityError, "database.host", "host must not be empty when no dsn is given"})
		}
		if db.Port < 0 || db.Port > 65535 {
			issues = append(issues, Issue{SeverityError, "database.port", fmt.Sprintf("port %d out of range", db.Port)})
		}
		if db.Name == "" {
			issues = append(issues, Issue{SeverityWarning, "database.name", "no database name; the server default is used"})
		}
	}
	if db.MaxOpenConns < 0 {
		issues = append(issues, Issue{SeverityError, "database.max_open_conns", "max_open_conns must not be negative"})
	}
	return issues
}

func validateCSV(c CSV) []Issue {
	var issues []Issue
	if c.SampleSize <= 0 {
		issues = append(issues, Issue{SeverityError, "csv.sample_size", fmt.Sprintf("sample_size=%d; must be positive", c.SampleSize)})
	}
	if c.EncodingSampleBytes < 0 {
		issues = append(issues, Issue{SeverityError, "csv.encoding_sample_bytes", "encoding_sample_bytes must not be negative"})
	}
	if c.SampleLines < 0 {
		issues = append(issues, Issue{SeverityError, "csv.sample_lines", "sample_lines must not be negative"})
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		issues = append(issues, Issue{SeverityError, "csv.min_confidence", "min_confidence must be within [0, 1]"})
	}
	if d := c.Delimiter; d != "" && d != `\t` && !strings.EqualFold(d, "tab") && utf8.RuneCountInString(d) != 1 {
		issues = append(issues, Issue{SeverityError, "csv.delimiter", fmt.Sprintf("delimiter %q must be a single character", d)})
	}
	for col, name := range c.Types {
		if _, err := inference.ParseTag(name); err != nil {
			issues = append(issues, Issue{SeverityError, "csv.types." + col, fmt.Sprintf("unknown type %q", name)})
		}
	}
	return issues
}

func validateTable(t Table) []Issue {
	var issues []Issue
	switch t.IfExists {
	case "fail", "replace", "append":
	default:
		issues = append(issues, Issue{SeverityError, "table.if_exists",
			fmt.Sprintf("if_exists=%q; want fail, replace or append", t.IfExists)})
	}
	for i, idx := range t.Indexes {
		if strings.TrimSpace(idx) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("table.indexes[%d]", i), "index column must not be empty"})
		} else if t.PrimaryKey != "" && strings.EqualFold(idx, t.PrimaryKey) {
			issues = append(issues, Issue{SeverityWarning, fmt.Sprintf("table.indexes[%d]", i), "primary key column is indexed already"})
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
	case "prometheus":
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "prometheus backend requires a pushgateway URL"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{SeverityError, "metrics.datadog_addr", "datadog backend requires a DogStatsD address"}}
		}
	default:
		return []Issue{{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)}}
	}
	return nil
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue
	if r.ChunkSize <= 0 {
		issues = append(issues, Issue{SeverityError, "runtime.chunk_size", fmt.Sprintf("chunk_size=%d; must be positive", r.ChunkSize)})
	}
	if r.Parallel < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.parallel", "parallel must not be negative"})
	}
	return issues
}
