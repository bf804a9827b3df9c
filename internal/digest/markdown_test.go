package digest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ppiankov/feedweave/internal/aggregate"
	"github.com/ppiankov/feedweave/internal/source"
)

func TestMarkdown_Feed(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdown().Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# feedweave",
		"3 sources, 3 posts",
		"### [reddit] [Go 1.25 released](https://www.reddit.com/r/golang/comments/abc/x/)",
		"*r/golang · u/alice · 3h ago*",
		"- ![image](https://pbs.example/1.jpg)",
		"## Failed sources (1)",
		"- **video**: video: status 500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdown_EscapesTitle(t *testing.T) {
	input := FeedInput{
		Entries: []aggregate.Entry{{
			Source: source.Reddit,
			Post:   source.Post{Platform: source.Reddit, Text: "[WIP] *bold* idea", URL: "https://r.example"},
		}},
		Now: testNow,
	}
	var buf bytes.Buffer
	if err := NewMarkdown().Format(&buf, input); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), `\[WIP\] \*bold\* idea`) {
		t.Errorf("title not escaped:\n%s", buf.String())
	}
}

func TestMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdown().Format(&buf, FeedInput{Now: testNow}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "No posts found.") {
		t.Errorf("missing empty message:\n%s", buf.String())
	}
}
