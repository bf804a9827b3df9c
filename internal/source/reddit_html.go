package source

import (
	"encoding/base64"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/feedweave/internal/normalize"
)

// redditCandidates selects post-like elements: the custom post element and
// generic articles that carry an accessible label.
const redditCandidates = `shreddit-post, article[aria-label]`

var (
	// authorPattern may match a u/name mentioned in the post body rather than the poster.
	authorPattern = regexp.MustCompile(`u/(\w+)`)
	// bareURLPattern takes the first link in the element text, which is not
	// guaranteed to be the post's own outbound link.
	bareURLPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

var redditTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999-0700",
	"2006-01-02T15:04:05-0700",
}

func redditFromHTML(body string) []Post {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decodeMarkup(body)))
	if err != nil {
		slog.Debug("parse reddit html", "error", err)
		return nil
	}

	seenPermalinks := make(map[string]bool)
	seenNodes := make(map[*html.Node]bool)
	var posts []Post

	doc.Find(redditCandidates).Each(func(_ int, el *goquery.Selection) {
		node := el.Get(0)
		if seenNodes[node] {
			return
		}
		seenNodes[node] = true

		post, ok := redditPostFromElement(el)
		if !ok {
			slog.Debug("drop item", "platform", Reddit, "reason", "no title, permalink or text")
			return
		}
		if key := post.Reddit.Permalink; key != "" {
			if seenPermalinks[key] {
				return
			}
			seenPermalinks[key] = true
		}
		posts = append(posts, post)
	})
	return posts
}

// decodeMarkup undoes the base64 wrapping some responses carry. Bodies that
// already look like markup, or fail to decode, are returned as-is.
func decodeMarkup(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || strings.HasPrefix(trimmed, "<") {
		return body
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(trimmed); err == nil {
			return string(decoded)
		}
	}
	return body
}

func redditPostFromElement(el *goquery.Selection) (Post, bool) {
	title := strings.TrimSpace(firstAttr(el, "aria-label", "post-title"))

	permalink := el.AttrOr("permalink", "")
	if permalink == "" {
		permalink = el.Find(`a[href*="/comments/"]`).First().AttrOr("href", "")
	}
	permalink = permalinkPath(permalink)

	subreddit, id := splitPermalink(permalink)
	if sub := strings.TrimPrefix(el.AttrOr("subreddit-prefixed-name", ""), "r/"); sub != "" {
		subreddit = sub
	}
	if attrID := strings.TrimPrefix(el.AttrOr("id", ""), "t3_"); id == "" && attrID != "" {
		id = attrID
	}

	text := strings.TrimSpace(el.Find(`[data-testid="post-content"]`).First().Text())
	if text == "" {
		text = strings.TrimSpace(el.Find(`[slot="text-body"]`).First().Text())
	}

	if title == "" && permalink == "" && text == "" {
		return Post{}, false
	}

	elementText := el.Text()
	author := el.AttrOr("author", "")
	if author == "" {
		if m := authorPattern.FindStringSubmatch(elementText); m != nil {
			author = m[1]
		}
	}

	extra := &RedditExtra{
		Subreddit: subreddit,
		Permalink: absoluteRedditURL(permalink),
		SelfText:  text,
	}
	extra.ExternalURL = externalLink(el, elementText, extra.Permalink)

	post := Post{
		Platform: Reddit,
		ID:       id,
		Text:     title,
		Author:   author,
		Engagement: Engagement{
			Score:    attrCount(el, "score"),
			Comments: attrCount(el, "comment-count"),
		},
		Timestamp: parseRedditTimestamp(el.AttrOr("created-timestamp", "")),
		URL:       extra.Permalink,
		Media:     elementMedia(el),
		Reddit:    extra,
	}
	if extra.ExternalURL != "" {
		post.URL = extra.ExternalURL
	}
	if post.Text == "" {
		post.Text = text
	}
	return post, true
}

// permalinkPath reduces an absolute reddit URL to its path.
func permalinkPath(permalink string) string {
	if !strings.HasPrefix(permalink, "http") {
		return permalink
	}
	u, err := url.Parse(permalink)
	if err != nil {
		return permalink
	}
	return u.Path
}

// splitPermalink reads the subreddit and post id from
// /r/<subreddit>/comments/<id>/<slug>/. Short paths yield empty values.
func splitPermalink(permalink string) (subreddit, id string) {
	parts := strings.Split(permalink, "/")
	if len(parts) <= 4 {
		return "", ""
	}
	if parts[1] == "r" {
		subreddit = parts[2]
	}
	return subreddit, parts[4]
}

// externalLink prefers the element's declared content link, then the first
// bare URL in its text. Links back to the thread itself are ignored.
func externalLink(el *goquery.Selection, elementText, permalink string) string {
	candidates := []string{el.AttrOr("content-href", "")}
	if m := bareURLPattern.FindString(elementText); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if c == "" || c == permalink {
			continue
		}
		if permalink != "" && strings.HasPrefix(c, strings.TrimRight(permalink, "/")) {
			continue
		}
		return c
	}
	return ""
}

// elementMedia returns the first embedded video (with the first image as its
// thumbnail), or else the first image hosted on reddit's media domains.
func elementMedia(el *goquery.Selection) []Media {
	var image string
	el.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", "")
		if strings.Contains(src, "preview.redd.it") ||
			(strings.Contains(src, "redd.it") && !strings.Contains(src, "communityIcon")) {
			image = src
			return false
		}
		return true
	})

	video := el.Find("video[src]").First().AttrOr("src", "")
	if video == "" {
		video = el.Find("video source[src]").First().AttrOr("src", "")
	}

	switch {
	case video != "":
		return []Media{{Kind: MediaVideo, URL: video, Thumbnail: image}}
	case image != "":
		return []Media{{Kind: MediaImage, URL: image}}
	default:
		return nil
	}
}

func firstAttr(el *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v := el.AttrOr(name, ""); v != "" {
			return v
		}
	}
	return ""
}

func attrCount(el *goquery.Selection, name string) int64 {
	c := normalize.ParseCount(el.AttrOr(name, ""))
	if !c.Valid {
		return 0
	}
	return c.Value
}

func parseRedditTimestamp(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range redditTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}
