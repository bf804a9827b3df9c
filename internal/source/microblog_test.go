package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func tweetResult(id, text string) map[string]any {
	return map[string]any{
		"__typename": "Tweet",
		"rest_id":    id,
		"core": map[string]any{"user_results": map[string]any{"result": map[string]any{
			"core":   map[string]any{"name": "Ada Lovelace", "screen_name": "ada"},
			"legacy": map[string]any{"followers_count": 12345},
		}}},
		"legacy": map[string]any{
			"full_text":      text,
			"favorite_count": 42,
			"retweet_count":  7,
			"reply_count":    3,
			"created_at":     "Wed Oct 10 20:19:24 +0000 2018",
		},
	}
}

func tweetEntry(result any) map[string]any {
	return map[string]any{
		"entryId": "tweet-1",
		"content": map[string]any{
			"entryType": "TimelineTimelineItem",
			"itemContent": map[string]any{
				"itemType":      "TimelineTweet",
				"tweet_results": map[string]any{"result": result},
			},
		},
	}
}

func timeline(entries ...map[string]any) map[string]any {
	return map[string]any{"data": map[string]any{"home": map[string]any{"home_timeline_urt": map[string]any{
		"instructions": []any{
			map[string]any{"type": "TimelineClearCache"},
			map[string]any{"type": "TimelineAddEntries", "entries": entries},
		},
	}}}}
}

func TestExtractMicroblog_Tweet(t *testing.T) {
	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(tweetResult("1050118621198921728", "hello world")))))
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.Platform != Microblog {
		t.Errorf("platform = %q", p.Platform)
	}
	if p.Text != "hello world" {
		t.Errorf("text = %q", p.Text)
	}
	if p.Author != "Ada Lovelace" {
		t.Errorf("author = %q", p.Author)
	}
	if p.URL != "https://x.com/ada/status/1050118621198921728" {
		t.Errorf("url = %q", p.URL)
	}
	if p.Engagement.Likes != 42 || p.Engagement.Reposts != 7 || p.Engagement.Replies != 3 {
		t.Errorf("engagement = %+v", p.Engagement)
	}
	if p.Timestamp != 1539202764 {
		t.Errorf("timestamp = %d, want 1539202764", p.Timestamp)
	}
	if p.Microblog == nil || p.Microblog.Handle != "ada" || p.Microblog.Followers != 12345 {
		t.Errorf("extras = %+v", p.Microblog)
	}
	if p.Microblog.CreatedAt != "Wed Oct 10 20:19:24 +0000 2018" {
		t.Errorf("created at = %q", p.Microblog.CreatedAt)
	}
}

func TestExtractMicroblog_IgnoresOtherEntries(t *testing.T) {
	cursor := map[string]any{"entryId": "cursor-top", "content": map[string]any{"entryType": "TimelineTimelineCursor", "value": "x"}}
	module := map[string]any{"entryId": "who-to-follow", "content": map[string]any{"entryType": "TimelineTimelineModule"}}
	user := map[string]any{"content": map[string]any{
		"entryType":   "TimelineTimelineItem",
		"itemContent": map[string]any{"itemType": "TimelineUser"},
	}}

	posts := ExtractMicroblog(jsonPayload(t, timeline(cursor, module, user, tweetEntry(tweetResult("1", "kept")))))
	if len(posts) != 1 || posts[0].Text != "kept" {
		t.Fatalf("posts = %+v, want only the tweet", posts)
	}
}

func TestExtractMicroblog_MissingUser(t *testing.T) {
	result := tweetResult("9", "anon")
	delete(result, "core")

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(result))))
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.Author != "" || p.Microblog.Handle != "" || p.Microblog.Followers != 0 {
		t.Errorf("expected empty author defaults, got %+v", p.Microblog)
	}
	if p.URL != "https://x.com/i/status/9" {
		t.Errorf("url = %q", p.URL)
	}
}

func TestExtractMicroblog_LegacyUserFallback(t *testing.T) {
	result := tweetResult("5", "legacy")
	result["core"] = map[string]any{"user_results": map[string]any{"result": map[string]any{
		"legacy": map[string]any{"name": "", "screen_name": "old_handle", "followers_count": 1},
	}}}

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(result))))
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].Author != "old_handle" {
		t.Errorf("author = %q, want handle fallback", posts[0].Author)
	}
}

func TestExtractMicroblog_VisibilityWrapper(t *testing.T) {
	wrapped := map[string]any{
		"__typename": "TweetWithVisibilityResults",
		"tweet":      tweetResult("77", "limited"),
	}
	tombstone := map[string]any{"__typename": "TweetTombstone"}

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(wrapped), tweetEntry(tombstone))))
	if len(posts) != 1 || posts[0].ID != "77" {
		t.Fatalf("posts = %+v, want unwrapped tweet 77", posts)
	}
}

func TestExtractMicroblog_OneMalformedTweet(t *testing.T) {
	var entries []map[string]any
	for i := 0; i < 10; i++ {
		if i == 3 {
			r := tweetResult("", "no id")
			entries = append(entries, tweetEntry(r))
			continue
		}
		entries = append(entries, tweetEntry(tweetResult(fmt.Sprint(i+1), "tweet")))
	}

	posts := ExtractMicroblog(jsonPayload(t, timeline(entries...)))
	if len(posts) != 9 {
		t.Fatalf("got %d posts, want 9", len(posts))
	}
	assertUsable(t, posts)
}

func TestExtractMicroblog_NoteTweet(t *testing.T) {
	result := tweetResult("3", "truncated…")
	result["note_tweet"] = map[string]any{"note_tweet_results": map[string]any{"result": map[string]any{"text": "the full long text"}}}

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(result))))
	if len(posts) != 1 || posts[0].Text != "the full long text" {
		t.Fatalf("posts = %+v, want note text", posts)
	}
}

func TestExtractMicroblog_BadTimestamp(t *testing.T) {
	result := tweetResult("4", "x")
	result["legacy"].(map[string]any)["created_at"] = "yesterday"

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(result))))
	if len(posts) != 1 || posts[0].Timestamp != 0 {
		t.Fatalf("posts = %+v, want timestamp 0", posts)
	}
}

func TestExtractMicroblog_Media(t *testing.T) {
	result := tweetResult("10", "media")
	legacy := result["legacy"].(map[string]any)
	legacy["entities"] = map[string]any{"media": []any{
		map[string]any{"type": "photo", "media_url_https": "https://pbs.twimg.com/plain.jpg"},
	}}
	legacy["extended_entities"] = map[string]any{"media": []any{
		map[string]any{
			"type":            "video",
			"media_url_https": "https://pbs.twimg.com/thumb.jpg",
			"video_info": map[string]any{"variants": []any{
				map[string]any{"content_type": "application/x-mpegURL", "url": "https://video.twimg.com/pl.m3u8"},
				map[string]any{"content_type": "video/mp4", "bitrate": 632000, "url": "https://video.twimg.com/low.mp4"},
				map[string]any{"content_type": "video/mp4", "bitrate": 2176000, "url": "https://video.twimg.com/high.mp4"},
				map[string]any{"content_type": "video/mp4", "bitrate": 950000, "url": "https://video.twimg.com/mid.mp4"},
			}},
		},
		map[string]any{"type": "photo", "media_url_https": "https://pbs.twimg.com/photo.jpg"},
		map[string]any{
			"type":            "animated_gif",
			"media_url_https": "https://pbs.twimg.com/gif.jpg",
			"video_info": map[string]any{"variants": []any{
				map[string]any{"content_type": "application/x-mpegURL", "url": "https://video.twimg.com/gif.m3u8"},
			}},
		},
	}}

	posts := ExtractMicroblog(jsonPayload(t, timeline(tweetEntry(result))))
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	media := posts[0].Media
	if len(media) != 2 {
		t.Fatalf("got %d media, want 2 (gif without mp4 skipped): %+v", len(media), media)
	}
	if media[0].Kind != MediaVideo || media[0].URL != "https://video.twimg.com/high.mp4" || media[0].Thumbnail != "https://pbs.twimg.com/thumb.jpg" {
		t.Errorf("media[0] = %+v, want highest bitrate mp4", media[0])
	}
	if media[1].Kind != MediaImage || media[1].URL != "https://pbs.twimg.com/photo.jpg" || media[1].Thumbnail != media[1].URL {
		t.Errorf("media[1] = %+v, want photo as url and thumbnail", media[1])
	}
}

func TestBestMP4_TieKeepsSourceOrder(t *testing.T) {
	variants := gjson.Parse(`[
		{"content_type":"video/mp4","bitrate":800,"url":"first"},
		{"content_type":"video/mp4","bitrate":800,"url":"second"},
		{"content_type":"video/mp4","bitrate":100,"url":"low"}
	]`).Array()
	if got := bestMP4(variants); got != "first" {
		t.Errorf("bestMP4 = %q, want first", got)
	}
	if got := bestMP4(nil); got != "" {
		t.Errorf("bestMP4(nil) = %q, want empty", got)
	}
}

func TestExtractMicroblog_UnknownShape(t *testing.T) {
	for _, p := range []Payload{JSONPayload([]byte(`{"errors":[{"message":"x"}]}`)), HTMLPayload("<html></html>")} {
		if posts := ExtractMicroblog(p); len(posts) != 0 {
			t.Errorf("got %d posts, want 0", len(posts))
		}
	}
}

func TestNewMicroblog_Validation(t *testing.T) {
	if _, err := NewMicroblog(nil, MicroblogConfig{BearerToken: "t"}); err == nil {
		t.Error("expected error without query id")
	}
	if _, err := NewMicroblog(nil, MicroblogConfig{QueryID: "q"}); err == nil {
		t.Error("expected error without bearer token")
	}
}

func TestMicroblogSource_Fetch(t *testing.T) {
	var req *http.Request
	var body string
	ms, err := NewMicroblog(staticCreds{"auth_token": "a", "ct0": "csrf"},
		MicroblogConfig{QueryID: "QID", BearerToken: "BEARER", Count: 5},
		WithBaseURL("https://x.test/"),
		WithHTTPClient(clientFor(func(r *http.Request) (*http.Response, error) {
			req = r
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			return response(http.StatusOK, "application/json", mustJSON(t, timeline(tweetEntry(tweetResult("1", "hi"))))), nil
		})),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	posts, err := ms.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if req.Method != http.MethodPost || req.URL.Path != "/i/api/graphql/QID/HomeTimeline" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	if req.Header.Get("Authorization") != "Bearer BEARER" {
		t.Errorf("authorization = %q", req.Header.Get("Authorization"))
	}
	if req.Header.Get("x-csrf-token") != "csrf" {
		t.Errorf("csrf = %q", req.Header.Get("x-csrf-token"))
	}
	if req.Header.Get("Cookie") != "auth_token=a; ct0=csrf" {
		t.Errorf("cookie = %q", req.Header.Get("Cookie"))
	}
	if gjson.Get(body, "variables.count").Int() != 5 {
		t.Errorf("body count = %s", gjson.Get(body, "variables.count").Raw)
	}
	if !strings.Contains(body, `"requestContext":"launch"`) {
		t.Errorf("body = %s", body)
	}
}

func TestMicroblogSource_Forbidden(t *testing.T) {
	ms, _ := NewMicroblog(staticCreds{"ct0": "c"}, MicroblogConfig{QueryID: "q", BearerToken: "b"},
		WithHTTPClient(clientFor(func(*http.Request) (*http.Response, error) {
			return response(http.StatusForbidden, "application/json", `{}`), nil
		})),
	)
	_, err := ms.Fetch(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Status != http.StatusForbidden {
		t.Fatalf("err = %v, want 403 auth error", err)
	}
}
