package core

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate parses the loosely formatted dates found in spend exports
// ("2024-01-03", "1/3/2024", "Jan 3, 2024", RFC3339 ...). Values without a
// zone are read as UTC. Ambiguous numeric dates are month-first. Values that
// carry no year are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	// Fragments such as "1.1" or "oct 7" parse without a year.
	if t.Year() == 0 {
		return time.Time{}, false
	}
	return t, true
}

// MonthLabel is the short month and four digit year of t, e.g. "Jan 2024".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// WeekOfMonth is ceil(day/7) capped at 5.
func WeekOfMonth(t time.Time) int {
	w := (t.Day() + 6) / 7
	if w > 5 {
		w = 5
	}
	return w
}
