package probe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxHeaderCheckRows bounds the rows the header sniffer compares.
const maxHeaderCheckRows = 20

// resolveHeader decides whether the first sampled line is a header. Any
// sniffer failure resolves to "header at row 0".
func resolveHeader(lines []string, delim rune, opt Options) Result[bool] {
	if opt.NoHeader {
		return detected(false)
	}
	has, err := sniffHeader(lines, delim)
	if err != nil {
		return degraded(true, "header sniff: %v", err)
	}
	return detected(has)
}

// columnKind is a per-column observation of the header sniffer: either
// "numeric" or a fixed string length.
type columnKind struct {
	numeric bool
	length  int
}

// sniffHeader votes per column: a column whose data rows are consistently
// numeric votes for a header when the first row is not numeric; a column
// whose data rows have one consistent length votes for a header when the
// first row has a different length. Columns with mixed observations do not
// vote.
func sniffHeader(lines []string, delim rune) (bool, error) {
	rows, err := parseLines(lines, delim)
	if err != nil {
		return false, err
	}
	if len(rows) < 2 {
		return false, fmt.Errorf("need at least 2 rows, have %d", len(rows))
	}

	header := rows[0]
	kinds := make(map[int]*columnKind, len(header))
	consistent := make(map[int]bool, len(header))
	for i := range header {
		consistent[i] = true
	}

	checked := 0
	for _, row := range rows[1:] {
		if checked >= maxHeaderCheckRows {
			break
		}
		checked++
		if len(row) != len(header) {
			continue
		}
		for col := range header {
			if !consistent[col] {
				continue
			}
			k := classify(row[col])
			prev, ok := kinds[col]
			if !ok {
				kinds[col] = &k
				continue
			}
			if *prev != k {
				consistent[col] = false
			}
		}
	}

	vote := 0
	for col, k := range kinds {
		if !consistent[col] {
			continue
		}
		if k.numeric {
			if isNumeric(header[col]) {
				vote--
			} else {
				vote++
			}
			continue
		}
		if utf8.RuneCountInString(header[col]) != k.length {
			vote++
		} else {
			vote--
		}
	}
	return vote > 0, nil
}

func classify(s string) columnKind {
	if isNumeric(s) {
		return columnKind{numeric: true}
	}
	return columnKind{length: utf8.RuneCountInString(s)}
}

// isNumeric accepts anything strconv can read as a complex number, which
// covers integers, decimals, exponents, inf and nan.
func isNumeric(s string) bool {
	_, err := strconv.ParseComplex(strings.TrimSpace(s), 128)
	return err == nil
}

func parseLines(lines []string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

// columnNames returns the header cells, or column_1..column_N when the file
// has no header. N is the field count of the first non-blank line.
func columnNames(lines []string, delim rune, hasHeader, trim bool) []string {
	if len(lines) == 0 {
		return []string{}
	}
	first, err := parseLines(lines[:1], delim)
	if err != nil || len(first) == 0 {
		// Plain split keeps the column count aligned with the line.
		first = [][]string{strings.Split(lines[0], string(delim))}
	}
	cells := stripUTF8BOM(first[0])

	names := make([]string, len(cells))
	for i, c := range cells {
		if trim {
			c = strings.TrimSpace(c)
		}
		if !hasHeader || c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		names[i] = c
	}
	return names
}

// stripUTF8BOM removes a UTF-8 BOM from the first header field if present.
func stripUTF8BOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	if strings.HasPrefix(headers[0], "\uFEFF") {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}
	return headers
}
