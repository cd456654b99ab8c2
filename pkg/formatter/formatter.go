package formatter

import (
	"strings"
	"time"
)

const displayLayout = "Jan 2, 2006 at 3:04 PM"

// PublishedAt converts an ISO-8601 timestamp into a medium date with a short
// time. Unparseable input is returned unchanged.
// Example: "2026-01-31T09:05:00Z" -> "Jan 31, 2026 at 9:05 AM"
func PublishedAt(s string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(displayLayout)
}

// Excerpt trims s to at most n runes, appending an ellipsis when cut.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}

	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
