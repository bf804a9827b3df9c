package source

import (
	"context"
	"fmt"
	"net/http"
)

const (
	redditBaseURL      = "https://www.reddit.com"
	redditDefaultLimit = 25
	redditMaxLimit     = 100
)

// RedditSource fetches the signed-in user's home feed.
type RedditSource struct {
	fetcher
	limit int
}

// NewReddit creates a Reddit source reading one page of at most limit posts.
func NewReddit(creds Credentials, limit int, opts ...Option) *RedditSource {
	if limit <= 0 {
		limit = redditDefaultLimit
	}
	if limit > redditMaxLimit {
		limit = redditMaxLimit
	}
	return &RedditSource{
		fetcher: newFetcher(Reddit, creds, redditBaseURL, opts),
		limit:   limit,
	}
}

func (rs *RedditSource) Fetch(ctx context.Context) ([]Post, error) {
	cookies, err := rs.cookies(ctx)
	if err != nil {
		return nil, err
	}

	req, err := rs.newRequest(ctx, http.MethodGet, fmt.Sprintf("/.json?limit=%d", rs.limit), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	payload, err := rs.do(req, cookies)
	if err != nil {
		return nil, err
	}
	return ExtractReddit(payload), nil
}
