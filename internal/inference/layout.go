package inference

import (
	"strings"
	"time"
)

// DateLayouts are the date formats (no time component) a Date column may use.
var DateLayouts = []string{
	"2006-01-02",  // ISO
	"02.01.2006",  // DMY dot
	"01.02.2006",  // MDY dot
	"02/01/2006",  // DMY slash
	"01/02/2006",  // MDY slash
	"02-01-2006",  // DMY dash
	"01-02-2006",  // MDY dash
	"2 Jan 2006",  // DMY textual day
	"02-Jan-2006", // DMY dash textual month
	"2006/01/02",  // ISO slashy
	"20060102",    // basic ISO
}

// TimeLayouts are the time-of-day formats a Time column may use.
var TimeLayouts = []string{
	"15:04:05",
	"15:04",
}

// TimestampLayouts are the timestamp formats (with time component) that mark
// a DateTime column.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05", // DMY
	"01/02/2006 15:04:05", // MDY
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
}

// dateLayoutPreference returns a tie-break weight for a date layout.
// Higher numbers = stronger preference: ISO, then DMY, then MDY.
func dateLayoutPreference(layout string) int {
	switch layout {
	case "2006-01-02", "2006/01/02", "20060102":
		return 3
	case "02.01.2006", "02/01/2006", "02-01-2006", "2 Jan 2006", "02-Jan-2006":
		return 2
	case "01.02.2006", "01/02/2006", "01-02-2006":
		return 1
	default:
		return 0
	}
}

// timestampLayoutPreference prefers RFC3339Nano, then RFC3339, then others
// equally.
func timestampLayoutPreference(layout string) int {
	switch layout {
	case time.RFC3339Nano:
		return 3
	case time.RFC3339:
		return 2
	default:
		return 1
	}
}

func noPreference(string) int { return 0 }

// selectBestLayout scores each candidate layout by how many samples it
// parses. The highest score wins; ties go to the higher preference, then to
// the earlier layout. It returns "" when no layout parses any sample.
func selectBestLayout(samples []string, layouts []string, pref func(string) int) string {
	if len(samples) == 0 || len(layouts) == 0 {
		return ""
	}
	scores := make([]int, len(layouts))
	for _, s := range samples {
		s = strings.TrimSpace(s)
		for i, lay := range layouts {
			if parses(lay, s) {
				scores[i]++
			}
		}
	}

	bestIdx, bestScore, bestPref := -1, -1, -1
	for i := range layouts {
		sc := scores[i]
		if sc < bestScore {
			continue
		}
		if sc > bestScore {
			bestIdx, bestScore, bestPref = i, sc, pref(layouts[i])
			continue
		}
		if p := pref(layouts[i]); p > bestPref {
			bestIdx, bestPref = i, p
		}
	}
	if bestIdx >= 0 && bestScore > 0 {
		return layouts[bestIdx]
	}
	return ""
}

func parses(layout, s string) bool {
	_, err := time.Parse(layout, s)
	return err == nil
}
