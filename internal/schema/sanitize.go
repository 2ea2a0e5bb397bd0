package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reNonIdent   = regexp.MustCompile(`[^A-Za-z0-9_]`)
	reUnderscore = regexp.MustCompile(`_+`)
)

// Sanitize turns arbitrary text into a SQL identifier: every character
// outside [A-Za-z0-9_], non-ASCII letters and whitespace included, becomes
// "_", runs of "_" collapse to one, and a leading digit gets a "col_" prefix.
func Sanitize(s string) string {
	out := reNonIdent.ReplaceAllString(s, "_")
	out = reUnderscore.ReplaceAllString(out, "_")
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "col_" + out
	}
	return out
}

// TableNameFromFile derives a table name from a file base name: lowercased,
// spaces and dashes turned into underscores, then sanitised.
func TableNameFromFile(base string) string {
	s := strings.ToLower(base)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return Sanitize(s)
}

// uniqueNames sanitises names and resolves collisions by appending _2, _3, …
// to later occurrences. Comparison is case-insensitive because MySQL and
// SQL Server column names are. reserved names are taken up front.
func uniqueNames(names []string, reserved ...string) []string {
	seen := make(map[string]bool, len(names)+len(reserved))
	for _, r := range reserved {
		seen[strings.ToLower(r)] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		base := Sanitize(n)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = claim(seen, base)
	}
	return out
}

func claim(seen map[string]bool, base string) string {
	name := base
	for k := 2; seen[strings.ToLower(name)]; k++ {
		name = fmt.Sprintf("%s_%d", base, k)
	}
	seen[strings.ToLower(name)] = true
	return name
}
