package source

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

const (
	microblogWebURL    = "https://x.com"
	microblogTimeStamp = "Mon Jan 02 15:04:05 -0700 2006"
)

// ExtractMicroblog walks a HomeTimeline response and returns one post per
// tweet cell. Other entry kinds (cursors, modules, promotions) are skipped.
func ExtractMicroblog(p Payload) []Post {
	if p.Kind != PayloadJSON {
		return nil
	}

	var posts []Post
	for _, ins := range p.JSON.Get("data.home.home_timeline_urt.instructions").Array() {
		if ins.Get("type").String() != "TimelineAddEntries" {
			continue
		}
		for _, entry := range ins.Get("entries").Array() {
			content := entry.Get("content")
			if content.Get("entryType").String() != "TimelineTimelineItem" {
				continue
			}
			item := content.Get("itemContent")
			if item.Get("itemType").String() != "TimelineTweet" {
				continue
			}
			post, err := tweetFromResult(item.Get("tweet_results.result"))
			if err != nil {
				slog.Debug("drop item", "platform", Microblog, "entry", entry.Get("entryId").String(), "reason", err)
				continue
			}
			posts = append(posts, post)
		}
	}
	return posts
}

func tweetFromResult(r gjson.Result) (Post, error) {
	switch typename := r.Get("__typename").String(); typename {
	case "Tweet":
	case "TweetWithVisibilityResults":
		r = r.Get("tweet")
	default:
		return Post{}, fmt.Errorf("unsupported result type %q", typename)
	}

	id := r.Get("rest_id").String()
	if id == "" {
		return Post{}, errors.New("tweet has no id")
	}

	legacy := r.Get("legacy")
	user := r.Get("core.user_results.result")
	handle := firstString(user, "core.screen_name", "legacy.screen_name")
	name := firstString(user, "core.name", "legacy.name")

	text := firstString(r, "note_tweet.note_tweet_results.result.text")
	if text == "" {
		text = legacy.Get("full_text").String()
	}

	createdAt := legacy.Get("created_at").String()

	post := Post{
		Platform: Microblog,
		ID:       id,
		Text:     text,
		Author:   name,
		Engagement: Engagement{
			Likes:   count(legacy, "favorite_count"),
			Reposts: count(legacy, "retweet_count"),
			Replies: count(legacy, "reply_count"),
			Views:   count(r, "views.count"),
		},
		Timestamp: parseTweetTime(createdAt),
		URL:       tweetURL(handle, id),
		Media:     tweetMedia(legacy),
		Microblog: &MicroblogExtra{
			Handle:      handle,
			DisplayName: name,
			Followers:   count(user, "legacy.followers_count"),
			CreatedAt:   createdAt,
		},
	}
	if post.Author == "" {
		post.Author = handle
	}
	return post, nil
}

func tweetURL(handle, id string) string {
	if handle == "" {
		return microblogWebURL + "/i/status/" + id
	}
	return fmt.Sprintf("%s/%s/status/%s", microblogWebURL, handle, id)
}

func parseTweetTime(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(microblogTimeStamp, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// tweetMedia prefers extended_entities, which carries video variants, over entities.
func tweetMedia(legacy gjson.Result) []Media {
	items := legacy.Get("extended_entities.media").Array()
	if len(items) == 0 {
		items = legacy.Get("entities.media").Array()
	}

	var media []Media
	for _, m := range items {
		thumb := m.Get("media_url_https").String()
		switch m.Get("type").String() {
		case "video", "animated_gif":
			best := bestMP4(m.Get("video_info.variants").Array())
			if best == "" {
				continue
			}
			media = append(media, Media{Kind: MediaVideo, URL: best, Thumbnail: thumb})
		case "photo":
			if thumb == "" {
				continue
			}
			media = append(media, Media{Kind: MediaImage, URL: thumb, Thumbnail: thumb})
		}
	}
	return media
}

// bestMP4 returns the highest-bitrate mp4 variant. Equal bitrates keep source
// order, so the first listed wins.
func bestMP4(variants []gjson.Result) string {
	var mp4 []gjson.Result
	for _, v := range variants {
		if v.Get("content_type").String() == "video/mp4" && v.Get("url").String() != "" {
			mp4 = append(mp4, v)
		}
	}
	if len(mp4) == 0 {
		return ""
	}
	sort.SliceStable(mp4, func(i, j int) bool {
		return mp4[i].Get("bitrate").Int() > mp4[j].Get("bitrate").Int()
	})
	return mp4[0].Get("url").String()
}
