package digest

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSON_Feed(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}

	var out jsonFeed
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if out.Meta.Posts != 3 || out.Meta.Sources != 3 {
		t.Errorf("meta = %+v, want 3 posts from 3 sources", out.Meta)
	}
	if out.Meta.GeneratedAt != "2025-07-24T23:33:20Z" {
		t.Errorf("generated_at = %q", out.Meta.GeneratedAt)
	}
	if len(out.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(out.Entries))
	}
	if out.Entries[0].Source != "reddit" || out.Entries[1].Source != "microblog" || out.Entries[2].Source != "video" {
		t.Errorf("entry order = %s,%s,%s", out.Entries[0].Source, out.Entries[1].Source, out.Entries[2].Source)
	}
	if out.Entries[0].Extras["subreddit"] != "golang" {
		t.Errorf("subreddit extra = %v", out.Entries[0].Extras["subreddit"])
	}
	if out.Entries[1].Engagement.Likes != 1500 {
		t.Errorf("likes = %d, want 1500", out.Entries[1].Engagement.Likes)
	}
	if len(out.Entries[1].Media) != 1 || out.Entries[1].Media[0].Kind != "image" {
		t.Errorf("media = %+v", out.Entries[1].Media)
	}
	if len(out.Failures) != 1 || out.Failures[0].Source != "video" || out.Failures[0].Auth {
		t.Errorf("failures = %+v", out.Failures)
	}
}

func TestJSON_EmptyEntriesIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, FeedInput{Now: testNow}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"entries": []`)) {
		t.Errorf("expected empty entries array:\n%s", buf.String())
	}
}

func TestCompact(t *testing.T) {
	got := compact(map[string]any{"a": "", "b": int64(0), "c": "x"})
	if len(got) != 1 || got["c"] != "x" {
		t.Errorf("compact = %v, want only c", got)
	}
	if compact(map[string]any{"a": ""}) != nil {
		t.Error("compact of all-empty map should be nil")
	}
}
