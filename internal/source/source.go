package source

import (
	"context"
	"fmt"
	"strings"
)

// Platform identifies which upstream produced a post.
type Platform string

const (
	Reddit    Platform = "reddit"
	Microblog Platform = "microblog"
	Video     Platform = "video"
)

// Platforms lists every supported platform in default feed order.
var Platforms = []Platform{Reddit, Microblog, Video}

// ParsePlatform resolves a platform name. The upstream site names are
// accepted as aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reddit":
		return Reddit, nil
	case "microblog", "twitter", "x":
		return Microblog, nil
	case "video", "youtube":
		return Video, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want reddit, microblog or video)", s)
	}
}

// MediaKind classifies a media attachment.
type MediaKind string

const (
	MediaImage        MediaKind = "image"
	MediaVideo        MediaKind = "video"
	MediaGalleryImage MediaKind = "gallery-image"
)

// Media is one attachment of a post, in source order.
type Media struct {
	Kind      MediaKind
	URL       string
	Thumbnail string // optional
}

// Engagement holds normalized counters. Only the fields a platform reports
// are set; the rest stay zero.
type Engagement struct {
	Score    int64 // reddit score, video views/1000
	Comments int64
	Likes    int64
	Reposts  int64
	Replies  int64
	Views    int64
}

// Post is the canonical, platform-independent representation produced by the
// extractors. Posts are values and are not modified after extraction.
type Post struct {
	Platform   Platform
	ID         string // source-specific id
	Text       string // title for reddit and video, body text for microblog
	Author     string // never nil, may be empty
	Engagement Engagement
	Timestamp  int64 // epoch seconds, 0 when unknown
	URL        string
	Media      []Media

	// Exactly one of these is set, matching Platform.
	Reddit    *RedditExtra
	Microblog *MicroblogExtra
	Video     *VideoExtra
}

// Usable reports whether the post has any text or link to show.
func (p Post) Usable() bool {
	return strings.TrimSpace(p.Text) != "" || strings.TrimSpace(p.URL) != ""
}

type RedditExtra struct {
	Subreddit   string
	Permalink   string // absolute thread URL
	SelfText    string
	ExternalURL string // empty for self posts
}

type MicroblogExtra struct {
	Handle      string
	DisplayName string
	Followers   int64
	CreatedAt   string // raw upstream timestamp
}

type VideoExtra struct {
	Channel       string
	ViewText      string
	PublishedText string
	Duration      string
}

// Source fetches one page of a platform's home feed and extracts canonical posts.
type Source interface {
	// Platform returns the platform this source reads.
	Platform() Platform

	// Fetch returns the extracted posts of a single page.
	Fetch(ctx context.Context) ([]Post, error)
}
