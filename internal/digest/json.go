package digest

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ppiankov/feedweave/internal/source"
)

type jsonFeed struct {
	Meta     jsonMeta      `json:"meta"`
	Entries  []jsonEntry   `json:"entries"`
	Failures []jsonFailure `json:"failures,omitempty"`
}

type jsonMeta struct {
	GeneratedAt string `json:"generated_at"`
	Sources     int    `json:"sources"`
	Posts       int    `json:"posts"`
}

type jsonEntry struct {
	Source     string         `json:"source"`
	ID         string         `json:"id,omitempty"`
	Text       string         `json:"text"`
	Author     string         `json:"author"`
	Timestamp  int64          `json:"timestamp"`
	URL        string         `json:"url,omitempty"`
	Engagement jsonEngagement `json:"engagement"`
	Media      []jsonMedia    `json:"media,omitempty"`
	Extras     map[string]any `json:"extras,omitempty"`
}

type jsonEngagement struct {
	Score    int64 `json:"score,omitempty"`
	Comments int64 `json:"comments,omitempty"`
	Likes    int64 `json:"likes,omitempty"`
	Reposts  int64 `json:"reposts,omitempty"`
	Replies  int64 `json:"replies,omitempty"`
	Views    int64 `json:"views,omitempty"`
}

type jsonMedia struct {
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type jsonFailure struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Auth    bool   `json:"auth"`
}

// JSONFormatter formats the feed as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the feed as JSON to w.
func (f *JSONFormatter) Format(w io.Writer, input FeedInput) error {
	out := jsonFeed{
		Meta: jsonMeta{
			GeneratedAt: input.Now.UTC().Format(time.RFC3339),
			Sources:     input.Sources,
			Posts:       len(input.Entries),
		},
		Entries: make([]jsonEntry, 0, len(input.Entries)),
	}
	for _, e := range input.Entries {
		out.Entries = append(out.Entries, toJSONEntry(string(e.Source), e.Post))
	}
	for _, fail := range input.Failures {
		out.Failures = append(out.Failures, jsonFailure{
			Source:  string(fail.Platform),
			Message: fail.Message,
			Auth:    fail.Auth,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toJSONEntry(src string, p source.Post) jsonEntry {
	e := jsonEntry{
		Source:    src,
		ID:        p.ID,
		Text:      p.Text,
		Author:    p.Author,
		Timestamp: p.Timestamp,
		URL:       p.URL,
		Engagement: jsonEngagement{
			Score:    p.Engagement.Score,
			Comments: p.Engagement.Comments,
			Likes:    p.Engagement.Likes,
			Reposts:  p.Engagement.Reposts,
			Replies:  p.Engagement.Replies,
			Views:    p.Engagement.Views,
		},
	}
	for _, m := range p.Media {
		e.Media = append(e.Media, jsonMedia{Kind: string(m.Kind), URL: m.URL, Thumbnail: m.Thumbnail})
	}

	switch {
	case p.Reddit != nil:
		e.Extras = compact(map[string]any{
			"subreddit":    p.Reddit.Subreddit,
			"permalink":    p.Reddit.Permalink,
			"self_text":    p.Reddit.SelfText,
			"external_url": p.Reddit.ExternalURL,
		})
	case p.Microblog != nil:
		e.Extras = compact(map[string]any{
			"handle":       p.Microblog.Handle,
			"display_name": p.Microblog.DisplayName,
			"followers":    p.Microblog.Followers,
			"created_at":   p.Microblog.CreatedAt,
		})
	case p.Video != nil:
		e.Extras = compact(map[string]any{
			"channel":   p.Video.Channel,
			"views":     p.Video.ViewText,
			"published": p.Video.PublishedText,
			"duration":  p.Video.Duration,
		})
	}
	return e
}

// compact drops empty strings and zero counts.
func compact(m map[string]any) map[string]any {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if val == "" {
				delete(m, k)
			}
		case int64:
			if val == 0 {
				delete(m, k)
			}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
