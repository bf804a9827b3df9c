package source

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

const redditWebURL = "https://www.reddit.com"

// ExtractReddit converts a Reddit listing (JSON) or a rendered feed page
// (HTML) into posts.
func ExtractReddit(p Payload) []Post {
	if p.Kind == PayloadHTML {
		return redditFromHTML(p.HTML)
	}

	var posts []Post
	if p.JSON.IsArray() {
		// Thread pages return [post listing, comment listing].
		for _, listing := range p.JSON.Array() {
			posts = append(posts, redditFromListing(listing)...)
		}
		return posts
	}
	return redditFromListing(p.JSON)
}

func redditFromListing(listing gjson.Result) []Post {
	if listing.Get("kind").String() != "Listing" {
		return nil
	}

	var posts []Post
	for _, child := range listing.Get("data.children").Array() {
		if child.Get("kind").String() != "t3" {
			continue
		}
		post, err := redditPostFromJSON(child.Get("data"))
		if err != nil {
			slog.Debug("drop item", "platform", Reddit, "reason", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

func redditPostFromJSON(d gjson.Result) (Post, error) {
	if !d.IsObject() {
		return Post{}, errors.New("post data is not an object")
	}

	permalink := absoluteRedditURL(d.Get("permalink").String())
	extra := &RedditExtra{
		Subreddit: d.Get("subreddit").String(),
		Permalink: permalink,
		SelfText:  d.Get("selftext").String(),
	}

	if u := d.Get("url").String(); u != "" && !d.Get("is_self").Bool() &&
		u != d.Get("permalink").String() && u != permalink {
		extra.ExternalURL = u
	}

	post := Post{
		Platform: Reddit,
		ID:       d.Get("id").String(),
		Text:     d.Get("title").String(),
		Author:   d.Get("author").String(),
		Engagement: Engagement{
			Score:    count(d, "score"),
			Comments: count(d, "num_comments"),
		},
		Timestamp: d.Get("created_utc").Int(),
		URL:       permalink,
		Media:     redditMedia(d),
		Reddit:    extra,
	}
	if extra.ExternalURL != "" {
		post.URL = extra.ExternalURL
	}
	if post.Text == "" {
		post.Text = extra.SelfText
	}

	if !post.Usable() {
		return Post{}, errors.New("no title or url")
	}
	return post, nil
}

// redditMedia returns the hosted video, else the gallery, else the preview image.
func redditMedia(d gjson.Result) []Media {
	preview := unescapeAmp(d.Get("preview.images.0.source.url").String())

	if video := firstString(d, "media.reddit_video.fallback_url", "secure_media.reddit_video.fallback_url"); video != "" {
		return []Media{{Kind: MediaVideo, URL: video, Thumbnail: preview}}
	}

	if d.Get("is_gallery").Bool() {
		if gallery := redditGallery(d); len(gallery) > 0 {
			return gallery
		}
	}

	if preview != "" {
		return []Media{{Kind: MediaImage, URL: preview}}
	}
	return nil
}

// redditGallery resolves gallery items in gallery order through media_metadata.
func redditGallery(d gjson.Result) []Media {
	metadata := d.Get("media_metadata")
	var media []Media
	for _, item := range d.Get("gallery_data.items").Array() {
		id := item.Get("media_id").String()
		if id == "" {
			continue
		}
		meta := metadata.Get(gjson.Escape(id))
		u := unescapeAmp(firstString(meta, "s.u", "s.gif"))
		if u == "" {
			continue
		}
		m := Media{Kind: MediaGalleryImage, URL: u}
		if thumbs := meta.Get("p").Array(); len(thumbs) > 0 {
			m.Thumbnail = unescapeAmp(thumbs[0].Get("u").String())
		}
		media = append(media, m)
	}
	return media
}

func absoluteRedditURL(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return redditWebURL + permalink
}

func unescapeAmp(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}
