package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var relativeTimePattern = regexp.MustCompile(`(?i)(\d+)\s*(second|minute|hour|day|week|month|year)s?\s*ago`)

// Month and year are fixed-length approximations.
var unitSeconds = map[string]int64{
	"second": 1,
	"minute": 60,
	"hour":   60 * 60,
	"day":    24 * 60 * 60,
	"week":   7 * 24 * 60 * 60,
	"month":  30 * 24 * 60 * 60,
	"year":   365 * 24 * 60 * 60,
}

// ParseRelativeTime converts text like "3 hours ago" into epoch seconds
// relative to now. Unrecognized text returns now.
func ParseRelativeTime(text string, now int64) int64 {
	m := relativeTimePattern.FindStringSubmatch(text)
	if m == nil {
		return now
	}
	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return now
	}
	return now - amount*unitSeconds[strings.ToLower(m[2])]
}

// FormatTimeAgo renders the age of ts: "just now", "5m ago", "3h ago", "12d ago".
// An unknown timestamp (0) renders as the empty string.
func FormatTimeAgo(ts, now int64) string {
	if ts == 0 {
		return ""
	}
	diff := now - ts
	switch {
	case diff < 60:
		return "just now"
	case diff < 60*60:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 24*60*60:
		return fmt.Sprintf("%dh ago", diff/(60*60))
	default:
		return fmt.Sprintf("%dd ago", diff/(24*60*60))
	}
}
