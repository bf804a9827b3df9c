// Package normalize converts human-formatted counts and relative times into
// canonical integers, and renders them back for display.
package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// countPattern matches the first number in a string with optional thousands
// separators, decimal part, and magnitude suffix ("25,949,544", "1.2M", "850K views").
var countPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kKmMbB])?\b`)

// Count is the result of ParseCount. When Valid is false no number could be
// recovered and Raw holds the original input for verbatim display.
type Count struct {
	Value int64
	Raw   string
	Valid bool
}

// String renders a parsed count with FormatCount, or the raw input otherwise.
func (c Count) String() string {
	if c.Valid {
		return FormatCount(c.Value)
	}
	return c.Raw
}

// ParseCount normalizes a count that arrives either as a number or as display
// text. Numbers pass through (negatives clamp to 0).
func ParseCount(input any) Count {
	switch v := input.(type) {
	case int:
		return number(int64(v))
	case int32:
		return number(int64(v))
	case int64:
		return number(v)
	case uint:
		return number(int64(v))
	case uint32:
		return number(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return number(math.MaxInt64)
		}
		return number(int64(v))
	case float32:
		return number(roundClamp(float64(v)))
	case float64:
		return number(roundClamp(v))
	case json.Number:
		return parseCountString(string(v))
	case string:
		return parseCountString(v)
	case nil:
		return Count{}
	default:
		return Count{}
	}
}

func number(n int64) Count {
	if n < 0 {
		n = 0
	}
	return Count{Value: n, Raw: strconv.FormatInt(n, 10), Valid: true}
}

// roundClamp rounds f to the nearest integer within [0, MaxInt64]. NaN is 0.
func roundClamp(f float64) int64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(math.Round(f))
}

func parseCountString(s string) Count {
	m := countPattern.FindStringSubmatch(s)
	if m == nil {
		return Count{Raw: s}
	}

	digits := strings.ReplaceAll(m[1], ",", "")
	suffix := strings.ToLower(m[2])

	if suffix == "" && !strings.Contains(digits, ".") {
		n, err := strconv.ParseInt(digits, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return Count{Value: math.MaxInt64, Raw: s, Valid: true}
		}
		if err != nil {
			return Count{Raw: s}
		}
		return Count{Value: n, Raw: s, Valid: true}
	}

	mantissa, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return Count{Raw: s}
	}
	switch suffix {
	case "k":
		mantissa *= 1e3
	case "m":
		mantissa *= 1e6
	case "b":
		mantissa *= 1e9
	}
	return Count{Value: roundClamp(mantissa), Raw: s, Valid: true}
}

var countUnits = []struct {
	size   float64
	suffix string
}{
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
}

// FormatCount renders n as a compact count: 999, 1.2K, 1.5M, 3B. A value that
// rounds up to 1000 of one unit moves to the next (999,950 is "1M").
func FormatCount(n int64) string {
	if n < 1_000 {
		return strconv.FormatInt(n, 10)
	}

	unit := 0
	for unit+1 < len(countUnits) && float64(n) >= countUnits[unit+1].size {
		unit++
	}
	s := scaled(n, countUnits[unit].size)
	if unit+1 < len(countUnits) && roundsToThousand(s) {
		unit++
		s = scaled(n, countUnits[unit].size)
	}
	return strings.TrimSuffix(s, ".0") + countUnits[unit].suffix
}

func scaled(n int64, unit float64) string {
	return strconv.FormatFloat(float64(n)/unit, 'f', 1, 64)
}

func roundsToThousand(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v >= 1000
}
