package digest

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/feedweave/internal/source"
)

// MarkdownFormatter formats the feed as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the feed as Markdown to w.
func (f *MarkdownFormatter) Format(w io.Writer, input FeedInput) error {
	fmt.Fprintf(w, "# feedweave\n\n")
	fmt.Fprintf(w, "%d sources, %d posts\n\n", input.Sources, len(input.Entries))

	if len(input.Entries) == 0 {
		fmt.Fprintln(w, "No posts found.")
		fmt.Fprintln(w)
	}

	for _, e := range input.Entries {
		p := e.Post
		title := headline(p.Text, 0)
		if title == "" {
			title = p.URL
		}
		if p.URL != "" {
			fmt.Fprintf(w, "### [%s] [%s](%s)\n\n", e.Source, escapeMarkdown(title), p.URL)
		} else {
			fmt.Fprintf(w, "### [%s] %s\n\n", e.Source, escapeMarkdown(title))
		}

		if meta := byline(p, input.Now); meta != "" {
			fmt.Fprintf(w, "*%s*\n\n", meta)
		}
		if stats := engagement(p); stats != "" {
			fmt.Fprintf(w, "%s\n\n", stats)
		}
		for _, m := range p.Media {
			if m.Kind == source.MediaVideo {
				fmt.Fprintf(w, "- [video](%s)\n", m.URL)
				continue
			}
			fmt.Fprintf(w, "- ![%s](%s)\n", m.Kind, m.URL)
		}
		if len(p.Media) > 0 {
			fmt.Fprintln(w)
		}
	}

	if len(input.Failures) > 0 {
		fmt.Fprintf(w, "## Failed sources (%d)\n\n", len(input.Failures))
		for _, fail := range input.Failures {
			suffix := ""
			if fail.Auth {
				suffix = " *(auth)*"
			}
			fmt.Fprintf(w, "- **%s**: %s%s\n", fail.Platform, fail.Message, suffix)
		}
	}

	return nil
}

var markdownEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
