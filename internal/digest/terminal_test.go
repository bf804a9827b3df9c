package digest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/feedweave/internal/aggregate"
	"github.com/ppiankov/feedweave/internal/source"
)

var testNow = time.Unix(1_753_400_000, 0)

func redditEntry(text string) aggregate.Entry {
	return aggregate.Entry{
		Source: source.Reddit,
		Post: source.Post{
			Platform:   source.Reddit,
			ID:         "abc",
			Text:       text,
			Author:     "alice",
			Engagement: source.Engagement{Score: 1234, Comments: 56},
			Timestamp:  testNow.Unix() - 3*3600,
			URL:        "https://www.reddit.com/r/golang/comments/abc/x/",
			Reddit: &source.RedditExtra{
				Subreddit: "golang",
				Permalink: "https://www.reddit.com/r/golang/comments/abc/x/",
			},
		},
	}
}

func microblogEntry(text string) aggregate.Entry {
	return aggregate.Entry{
		Source: source.Microblog,
		Post: source.Post{
			Platform:   source.Microblog,
			ID:         "42",
			Text:       text,
			Author:     "Ada",
			Engagement: source.Engagement{Likes: 1500, Reposts: 7, Replies: 3, Views: 2_000_000},
			Timestamp:  testNow.Unix() - 300,
			URL:        "https://x.com/ada/status/42",
			Media:      []source.Media{{Kind: source.MediaImage, URL: "https://pbs.example/1.jpg"}},
			Microblog:  &source.MicroblogExtra{Handle: "ada", DisplayName: "Ada", Followers: 12345},
		},
	}
}

func videoEntry(title string) aggregate.Entry {
	return aggregate.Entry{
		Source: source.Video,
		Post: source.Post{
			Platform:   source.Video,
			ID:         "vid1",
			Text:       title,
			Author:     "Gopher TV",
			Engagement: source.Engagement{Views: 1_200_000, Score: 1200},
			Timestamp:  testNow.Unix() - 2*86400,
			URL:        "https://www.youtube.com/watch?v=vid1",
			Video:      &source.VideoExtra{Channel: "Gopher TV", ViewText: "1.2M views", Duration: "12:34"},
		},
	}
}

func sampleInput() FeedInput {
	return FeedInput{
		Entries: []aggregate.Entry{
			redditEntry("Go 1.25 released"),
			microblogEntry("hello world"),
			videoEntry("Concurrency patterns"),
		},
		Failures: FailuresFrom([]aggregate.Result{
			{Platform: source.Video, Err: &source.FetchError{Platform: source.Video, Status: 500}},
		}),
		Sources: 3,
		Now:     testNow,
	}
}

func TestTerminal_Feed(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"3 sources, 3 posts",
		"[REDDIT] r/golang · u/alice · 3h ago",
		"score 1.2K · 56 comments",
		"[MICROBLOG] Ada @ada · 12,345 followers · 5m ago",
		"1.5K likes · 7 reposts · 3 replies · 2M views",
		"image: https://pbs.example/1.jpg",
		"[VIDEO] Gopher TV · 12:34 · 2d ago",
		"1.2M views",
		"https://www.youtube.com/watch?v=vid1",
		"Failed sources (1)",
		"video: status 500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("ANSI codes present with color=false")
	}
}

func TestTerminal_Order(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := buf.String()
	r := strings.Index(out, "[REDDIT]")
	m := strings.Index(out, "[MICROBLOG]")
	v := strings.Index(out, "[VIDEO]")
	if !(r < m && m < v) {
		t.Errorf("entries out of order: reddit=%d microblog=%d video=%d", r, m, v)
	}
}

func TestTerminal_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, FeedInput{Now: testNow}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "No posts found.") {
		t.Errorf("missing empty message:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Failed sources") {
		t.Error("unexpected failure section")
	}
}

func TestTerminal_AuthFailure(t *testing.T) {
	input := FeedInput{
		Failures: FailuresFrom([]aggregate.Result{
			{Platform: source.Microblog, Err: &source.AuthError{Platform: source.Microblog, Status: 401}},
		}),
		Now: testNow,
	}
	var buf bytes.Buffer
	if err := NewTerminal(false).Format(&buf, input); err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "microblog: authentication error (401). Cookies may be expired. (auth)"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %q\n%s", want, buf.String())
	}
}

func TestTerminal_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(true).Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[1m") {
		t.Error("expected bold ANSI code with color=true")
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want string
	}{
		{"  single line  ", 0, "single line"},
		{"title\nbody text", 0, "title"},
		{"abcdef", 4, "abc…"},
		{"héllo", 5, "héllo"},
	}
	for _, tt := range tests {
		if got := headline(tt.text, tt.max); got != tt.want {
			t.Errorf("headline(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "terminal", "json", "markdown", "md"} {
		if _, err := New(format, false); err != nil {
			t.Errorf("New(%q): %v", format, err)
		}
	}
	if _, err := New("xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLimit(t *testing.T) {
	entries := sampleInput().Entries
	if got := len(Limit(entries, 2)); got != 2 {
		t.Errorf("Limit(2) = %d entries, want 2", got)
	}
	if got := len(Limit(entries, 0)); got != 3 {
		t.Errorf("Limit(0) = %d entries, want 3", got)
	}
	if got := len(Limit(entries, 10)); got != 3 {
		t.Errorf("Limit(10) = %d entries, want 3", got)
	}
}

func TestFailuresFrom(t *testing.T) {
	results := []aggregate.Result{
		{Platform: source.Reddit, Posts: []source.Post{{Text: "x"}}},
		{Platform: source.Microblog, Err: &source.AuthError{Platform: source.Microblog}},
		{Platform: source.Video, Err: errors.New("video: timeout")},
	}
	got := FailuresFrom(results)
	if len(got) != 2 {
		t.Fatalf("failures = %d, want 2", len(got))
	}
	if !got[0].Auth || got[0].Platform != source.Microblog {
		t.Errorf("first failure = %+v, want microblog auth", got[0])
	}
	if got[1].Auth {
		t.Error("timeout should not be an auth failure")
	}
}
