package digest

import (
	"fmt"
	"io"
	"strings"
)

const terminalHeadlineWidth = 200

// TerminalFormatter formats the feed for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes the feed to w in interleaved order, followed by source failures.
func (f *TerminalFormatter) Format(w io.Writer, input FeedInput) error {
	header := fmt.Sprintf("feedweave — %d sources, %d posts", input.Sources, len(input.Entries))
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(input.Entries) == 0 {
		fmt.Fprintln(w, "No posts found.")
	}

	for _, e := range input.Entries {
		p := e.Post
		label := f.platformColor(string(e.Source), "["+strings.ToUpper(string(e.Source))+"]")
		if meta := byline(p, input.Now); meta != "" {
			fmt.Fprintf(w, "%s %s\n", f.bold(label), f.dim(meta))
		} else {
			fmt.Fprintln(w, f.bold(label))
		}

		if text := headline(p.Text, terminalHeadlineWidth); text != "" {
			fmt.Fprintf(w, "  %s\n", text)
		}
		if stats := engagement(p); stats != "" {
			fmt.Fprintf(w, "  %s\n", f.dim(stats))
		}
		for _, m := range p.Media {
			fmt.Fprintf(w, "  %s\n", f.dim(string(m.Kind)+": "+m.URL))
		}
		if p.URL != "" {
			fmt.Fprintf(w, "  %s\n", f.dim(p.URL))
		}
		fmt.Fprintln(w)
	}

	if len(input.Failures) > 0 {
		fmt.Fprintln(w, f.red(f.bold(fmt.Sprintf("--- Failed sources (%d) ---", len(input.Failures)))))
		for _, fail := range input.Failures {
			line := fail.Message
			if fail.Auth {
				line += " (auth)"
			}
			fmt.Fprintf(w, "  %s\n", f.red(line))
		}
	}

	return nil
}

func (f *TerminalFormatter) platformColor(platform, s string) string {
	switch platform {
	case "reddit":
		return f.yellow(s)
	case "microblog":
		return f.cyan(s)
	case "video":
		return f.red(s)
	default:
		return f.green(s)
	}
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (f *TerminalFormatter) bold(s string) string   { return f.paint("1", s) }
func (f *TerminalFormatter) red(s string) string    { return f.paint("31", s) }
func (f *TerminalFormatter) green(s string) string  { return f.paint("32", s) }
func (f *TerminalFormatter) yellow(s string) string { return f.paint("33", s) }
func (f *TerminalFormatter) cyan(s string) string   { return f.paint("36", s) }
func (f *TerminalFormatter) dim(s string) string    { return f.paint("2", s) }
