package source

import (
	"strings"

	"github.com/ppiankov/feedweave/internal/normalize"
	"github.com/tidwall/gjson"
)

// Safe path accessors over gjson results. A missing intermediate key yields
// the zero value instead of an error.

// firstString returns the first non-empty string found at paths.
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := r.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}

// count reads a counter that may be encoded as a number or as display text.
func count(r gjson.Result, path string) int64 {
	v := r.Get(path)
	if !v.Exists() {
		return 0
	}
	var c normalize.Count
	if v.Type == gjson.Number {
		c = normalize.ParseCount(v.Float())
	} else {
		c = normalize.ParseCount(v.String())
	}
	if !c.Valid {
		return 0
	}
	return c.Value
}

// richText concatenates a "runs" array, falling back to simpleText.
func richText(r gjson.Result) string {
	if runs := r.Get("runs"); runs.IsArray() {
		var b strings.Builder
		for _, run := range runs.Array() {
			b.WriteString(run.Get("text").String())
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return r.Get("simpleText").String()
}

// last returns the final element of the array at path.
func last(r gjson.Result, path string) gjson.Result {
	items := r.Get(path).Array()
	if len(items) == 0 {
		return gjson.Result{}
	}
	return items[len(items)-1]
}
