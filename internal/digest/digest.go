// Package digest renders the interleaved feed for terminals, JSON consumers
// and Markdown documents.
package digest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/feedweave/internal/aggregate"
	"github.com/ppiankov/feedweave/internal/normalize"
	"github.com/ppiankov/feedweave/internal/source"
)

// SourceFailure is a labeled per-source error shown next to the feed.
type SourceFailure struct {
	Platform source.Platform
	Message  string
	Auth     bool
}

// FeedInput is the full input for a feed formatter.
type FeedInput struct {
	Entries  []aggregate.Entry
	Failures []SourceFailure
	Sources  int // number of sources queried
	Now      time.Time
}

// Formatter writes a formatted feed to w.
type Formatter interface {
	Format(w io.Writer, input FeedInput) error
}

// New returns the formatter for format: terminal, json or markdown.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, json or markdown)", format)
	}
}

// FailuresFrom converts failed aggregate results into display failures.
func FailuresFrom(results []aggregate.Result) []SourceFailure {
	var out []SourceFailure
	for _, r := range aggregate.Failures(results) {
		out = append(out, SourceFailure{
			Platform: r.Platform,
			Message:  r.Err.Error(),
			Auth:     r.AuthFailed(),
		})
	}
	return out
}

// Limit truncates entries to n; n <= 0 keeps all.
func Limit(entries []aggregate.Entry, n int) []aggregate.Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

// byline describes who posted and when, e.g. "r/golang · u/alice · 3h ago".
func byline(p source.Post, now time.Time) string {
	var parts []string
	switch {
	case p.Reddit != nil:
		if p.Reddit.Subreddit != "" {
			parts = append(parts, "r/"+p.Reddit.Subreddit)
		}
		if p.Author != "" {
			parts = append(parts, "u/"+p.Author)
		}
	case p.Microblog != nil:
		name := p.Author
		if p.Microblog.Handle != "" {
			name = strings.TrimSpace(name + " @" + p.Microblog.Handle)
		}
		if name != "" {
			parts = append(parts, name)
		}
		if p.Microblog.Followers > 0 {
			parts = append(parts, humanize.Comma(p.Microblog.Followers)+" followers")
		}
	case p.Video != nil:
		if p.Author != "" {
			parts = append(parts, p.Author)
		}
		if p.Video.Duration != "" {
			parts = append(parts, p.Video.Duration)
		}
	default:
		if p.Author != "" {
			parts = append(parts, p.Author)
		}
	}
	if ago := normalize.FormatTimeAgo(p.Timestamp, now.Unix()); ago != "" {
		parts = append(parts, ago)
	}
	return strings.Join(parts, " · ")
}

// engagement renders the counters a platform reports, e.g. "score 1.2K · 34 comments".
func engagement(p source.Post) string {
	e := p.Engagement
	var parts []string
	switch p.Platform {
	case source.Reddit:
		parts = append(parts, "score "+normalize.FormatCount(e.Score), normalize.FormatCount(e.Comments)+" comments")
	case source.Microblog:
		parts = append(parts,
			normalize.FormatCount(e.Likes)+" likes",
			normalize.FormatCount(e.Reposts)+" reposts",
			normalize.FormatCount(e.Replies)+" replies")
		if e.Views > 0 {
			parts = append(parts, normalize.FormatCount(e.Views)+" views")
		}
	case source.Video:
		switch {
		case e.Views > 0:
			parts = append(parts, normalize.FormatCount(e.Views)+" views")
		case p.Video != nil && p.Video.ViewText != "":
			parts = append(parts, p.Video.ViewText)
		}
	}
	return strings.Join(parts, " · ")
}

// headline returns the first line of the post text, truncated to max runes.
func headline(text string, max int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return text
}
