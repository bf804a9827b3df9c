package privacy

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/feedweave/internal/aggregate"
)

const redactedPlaceholder = "[REDACTED]"

// Compile compiles a list of regex pattern strings into compiled regexps.
// Returns an error if any pattern is invalid.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile redact pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply replaces all matches of the compiled patterns in text with [REDACTED].
func Apply(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// Redactor masks sensitive text in feed entries before display.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles patterns. A Redactor without patterns returns entries unchanged.
func NewRedactor(patterns []string) (*Redactor, error) {
	compiled, err := Compile(patterns)
	if err != nil {
		return nil, err
	}
	return &Redactor{patterns: compiled}, nil
}

// Entries returns a display copy of entries with text fields redacted.
// The input slice and its posts are left untouched.
func (r *Redactor) Entries(entries []aggregate.Entry) []aggregate.Entry {
	if r == nil || len(r.patterns) == 0 {
		return entries
	}

	out := make([]aggregate.Entry, len(entries))
	for i, e := range entries {
		p := e.Post
		p.Text = Apply(p.Text, r.patterns)
		if p.Reddit != nil {
			extra := *p.Reddit
			extra.SelfText = Apply(extra.SelfText, r.patterns)
			p.Reddit = &extra
		}
		out[i] = aggregate.Entry{Source: e.Source, Post: p}
	}
	return out
}
