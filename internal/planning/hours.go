package planning

import (
	"strconv"
	"strings"
)

// Hours-per-unit table for estimated production time strings. A working
// week is 40 hours, a working day 8.
const (
	hoursPerWeek = 40
	hoursPerDay  = 8
)

// ParseHours converts a free-text production time estimate ("2 weeks",
// "3 days", "40 hours") into hours. Unparsable or missing text yields
// (0, false) and never an error: estimates are user-authored noise and a
// bad one must not fail a whole aggregation. The bool keeps the
// degradation observable to callers that care (compliance, tests).
func ParseHours(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	n, ok := leadingNumber(s)
	if !ok {
		return 0, false
	}

	switch {
	case strings.Contains(s, "week"):
		return n * hoursPerWeek, true
	case strings.Contains(s, "day"):
		return n * hoursPerDay, true
	case strings.Contains(s, "hour"), strings.Contains(s, "hr"):
		return n, true
	}
	return 0, false
}

// leadingNumber reads the numeric prefix of s, tolerating a decimal point.
func leadingNumber(s string) (float64, bool) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
