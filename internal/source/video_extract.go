package source

import (
	"errors"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/ppiankov/feedweave/internal/normalize"
)

const videoWatchURL = "https://www.youtube.com/watch?v="

// sectionBranch names the structural branch where the section list was found.
type sectionBranch string

const (
	branchNone            sectionBranch = ""
	branchTabsRichGrid    sectionBranch = "tabs/rich-grid"
	branchTabsSectionList sectionBranch = "tabs/section-list"
	branchRichGrid        sectionBranch = "rich-grid"
	branchSectionList     sectionBranch = "section-list"
)

// ExtractVideo converts a browse response into posts. now (epoch seconds)
// anchors relative publish times.
func ExtractVideo(p Payload, now int64) []Post {
	if p.Kind != PayloadJSON {
		return nil
	}

	sections, branch := locateSections(p.JSON)
	if branch == branchNone {
		slog.Debug("no section list found", "platform", Video)
		return nil
	}

	var posts []Post
	for _, section := range sections {
		for _, renderer := range videoRenderers(section) {
			post, err := videoFromRenderer(renderer, now)
			if err != nil {
				slog.Debug("drop item", "platform", Video, "branch", branch, "reason", err)
				continue
			}
			posts = append(posts, post)
		}
	}
	return posts
}

// locateSections tries each known layout in order; the first present wins.
func locateSections(root gjson.Result) ([]gjson.Result, sectionBranch) {
	tab := root.Get("contents.twoColumnBrowseResultsRenderer.tabs.0.tabRenderer.content")
	candidates := []struct {
		branch sectionBranch
		list   gjson.Result
	}{
		{branchTabsRichGrid, tab.Get("richGridRenderer.contents")},
		{branchTabsSectionList, tab.Get("sectionListRenderer.contents")},
		{branchRichGrid, root.Get("contents.richGridRenderer.contents")},
		{branchSectionList, root.Get("contents.sectionListRenderer.contents")},
	}
	for _, c := range candidates {
		if c.list.IsArray() {
			return c.list.Array(), c.branch
		}
	}
	return nil, branchNone
}

// videoRenderers flattens the section shapes into video renderers: a rich
// item wrapping one video, a rich section holding a shelf of rich items, a
// bare video renderer, or an item section listing any of these.
func videoRenderers(section gjson.Result) []gjson.Result {
	switch {
	case section.Get("richItemRenderer").Exists():
		return present(section.Get("richItemRenderer.content.videoRenderer"))
	case section.Get("richSectionRenderer").Exists():
		var out []gjson.Result
		for _, item := range section.Get("richSectionRenderer.content.richShelfRenderer.contents").Array() {
			out = append(out, present(item.Get("richItemRenderer.content.videoRenderer"))...)
		}
		return out
	case section.Get("videoRenderer").Exists():
		return present(section.Get("videoRenderer"))
	case section.Get("itemSectionRenderer").Exists():
		var out []gjson.Result
		for _, item := range section.Get("itemSectionRenderer.contents").Array() {
			out = append(out, videoRenderers(item)...)
		}
		return out
	default:
		return nil
	}
}

func present(r gjson.Result) []gjson.Result {
	if !r.Exists() {
		return nil
	}
	return []gjson.Result{r}
}

func videoFromRenderer(v gjson.Result, now int64) (Post, error) {
	id := v.Get("videoId").String()
	if id == "" {
		return Post{}, errors.New("video has no id")
	}

	channel := firstString(v, "longBylineText.runs.0.text", "ownerText.runs.0.text", "shortBylineText.runs.0.text")
	viewText := richText(v.Get("viewCountText"))
	published := v.Get("publishedTimeText.simpleText").String()
	thumbnail := last(v, "thumbnail.thumbnails").Get("url").String()

	var engagement Engagement
	if views := normalize.ParseCount(viewText); views.Valid {
		engagement.Views = views.Value
		engagement.Score = views.Value / 1000
	}

	post := Post{
		Platform:   Video,
		ID:         id,
		Text:       richText(v.Get("title")),
		Author:     channel,
		Engagement: engagement,
		Timestamp:  normalize.ParseRelativeTime(published, now),
		URL:        videoWatchURL + id,
		Video: &VideoExtra{
			Channel:       channel,
			ViewText:      viewText,
			PublishedText: published,
			Duration:      v.Get("lengthText.simpleText").String(),
		},
	}
	if thumbnail != "" {
		post.Media = []Media{{Kind: MediaImage, URL: thumbnail, Thumbnail: thumbnail}}
	}
	return post, nil
}
