package probe

import (
	"strings"
	"unicode/utf8"
)

// preferredDelimiters breaks ties between equally consistent sniffer
// candidates.
var preferredDelimiters = []rune{',', '\t', ';', ' ', ':'}

// countCandidates is the fixed candidate list of the counting fallback, in
// tie-break order.
var countCandidates = []rune{',', ';', '\t', '|', ' '}

// resolveDelimiter runs the grammar sniffer, then the counting fallback, then
// defaults to comma.
func resolveDelimiter(lines []string, opt Options) Result[rune] {
	if opt.Delimiter != 0 {
		return detected(opt.Delimiter)
	}
	if d, ok := sniffDelimiter(lines); ok {
		return detected(d)
	}
	if d, ok := countDelimiter(strings.Join(lines, "\n")); ok {
		return degraded(d, "sniffer failed; counted %q", d)
	}
	return degraded(',', "no delimiter candidate in sample")
}

// sniffDelimiter looks for the character that separates quoted fields, and
// failing that for the character whose per-line count is most consistent.
func sniffDelimiter(lines []string) (rune, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	if d, ok := quoteDelimiter(lines); ok {
		return d, true
	}
	return frequencyDelimiter(lines)
}

// isDelimiterCandidate accepts printable ASCII punctuation, space and tab.
func isDelimiterCandidate(r rune) bool {
	switch {
	case r == '\t':
		return true
	case r < ' ' || r > '~':
		return false
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '_' || r == '"' || r == '\'':
		return false
	}
	return true
}

// quoteDelimiter counts the character that immediately follows each closing
// quote of a quoted field.
func quoteDelimiter(lines []string) (rune, bool) {
	counts := map[rune]int{}
	for _, line := range lines {
		rs := []rune(line)
		inQuote := false
		for i := 0; i < len(rs); i++ {
			if rs[i] != '"' {
				continue
			}
			if !inQuote {
				inQuote = i == 0 || !isWordRune(rs[i-1])
				continue
			}
			if i+1 < len(rs) && rs[i+1] == '"' {
				i++ // escaped quote
				continue
			}
			inQuote = false
			if i+1 < len(rs) && isDelimiterCandidate(rs[i+1]) {
				counts[rs[i+1]]++
			}
		}
	}
	return pickDelimiter(counts)
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// frequencyDelimiter builds, per candidate, a histogram of its per-line
// count. The mode is adjusted by the lines that disagree with it, and a
// candidate is accepted when its adjusted mode covers the required share of
// lines. The required share starts at 1.0 and relaxes to 0.9.
func frequencyDelimiter(lines []string) (rune, bool) {
	type mode struct{ count, lines int }

	seen := map[rune]bool{}
	var order []rune
	for _, line := range lines {
		for _, r := range line {
			if isDelimiterCandidate(r) && !seen[r] {
				seen[r] = true
				order = append(order, r)
			}
		}
	}

	modes := map[rune]mode{}
	for _, c := range order {
		hist := map[int]int{}
		var firstSeen []int
		for _, line := range lines {
			n := strings.Count(line, string(c))
			if _, ok := hist[n]; !ok {
				firstSeen = append(firstSeen, n)
			}
			hist[n]++
		}
		if len(hist) == 1 && firstSeen[0] == 0 {
			continue
		}
		best := mode{count: firstSeen[0], lines: hist[firstSeen[0]]}
		for _, n := range firstSeen[1:] {
			if hist[n] > best.lines {
				best = mode{count: n, lines: hist[n]}
			}
		}
		others := 0
		for n, k := range hist {
			if n != best.count {
				others += k
			}
		}
		best.lines -= others
		modes[c] = best
	}

	total := float64(len(lines))
	accepted := map[rune]int{}
	for consistency := 1.0; len(accepted) == 0 && consistency >= 0.9-1e-9; consistency -= 0.01 {
		for _, c := range order {
			m, ok := modes[c]
			if !ok || m.count <= 0 || m.lines <= 0 {
				continue
			}
			if float64(m.lines)/total >= consistency-1e-9 {
				accepted[c] = m.count
			}
		}
	}
	return pickDelimiter(accepted)
}

// pickDelimiter chooses among scored candidates: a single candidate wins
// outright, then the preferred list decides, then the highest score (highest
// rune on equal scores, so '|' outranks '-', '.' and '/').
func pickDelimiter(scores map[rune]int) (rune, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	if len(scores) == 1 {
		for r := range scores {
			return r, true
		}
	}
	for _, p := range preferredDelimiters {
		if _, ok := scores[p]; ok {
			return p, true
		}
	}
	var best rune
	bestScore := -1
	for r, s := range scores {
		if s > bestScore || (s == bestScore && r > best) {
			best, bestScore = r, s
		}
	}
	return best, true
}

// countDelimiter is the fallback: the most frequent fixed candidate, ignoring
// candidates that never occur or occur in more than half the sample.
func countDelimiter(sample string) (rune, bool) {
	limit := float64(utf8.RuneCountInString(sample)) / 2
	var best rune
	bestCount := 0
	for _, c := range countCandidates {
		n := strings.Count(sample, string(c))
		if n == 0 || float64(n) >= limit {
			continue
		}
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	return best, bestCount > 0
}

// DecodeDelimiter converts a user-supplied string into a single rune delimiter.
// The escapes `\t` and "tab" are accepted for tab.
func DecodeDelimiter(s string) rune {
	switch s {
	case "":
		return 0
	case `\t`, "tab", "TAB":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0
	}
	return r
}
