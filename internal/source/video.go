package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	videoBaseURL          = "https://www.youtube.com"
	videoDefaultBrowseID  = "FEwhat_to_watch"
	videoDefaultClientVer = "2.20250724.00.00"
)

// VideoConfig holds the request parameters of the browse query.
type VideoConfig struct {
	BrowseID      string
	ClientVersion string
	APIKey        string // optional
}

// VideoSource fetches the signed-in user's recommended videos.
type VideoSource struct {
	fetcher
	cfg VideoConfig
	now func() time.Time
}

// NewVideo creates a video platform source.
func NewVideo(creds Credentials, cfg VideoConfig, opts ...Option) *VideoSource {
	if cfg.BrowseID == "" {
		cfg.BrowseID = videoDefaultBrowseID
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = videoDefaultClientVer
	}
	return &VideoSource{
		fetcher: newFetcher(Video, creds, videoBaseURL, opts),
		cfg:     cfg,
		now:     time.Now,
	}
}

type browseRequest struct {
	Context  browseContext `json:"context"`
	BrowseID string        `json:"browseId"`
}

type browseContext struct {
	Client browseClient `json:"client"`
}

type browseClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
	GL            string `json:"gl"`
}

func (vs *VideoSource) Fetch(ctx context.Context) ([]Post, error) {
	cookies, err := vs.cookies(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(browseRequest{
		Context: browseContext{Client: browseClient{
			ClientName:    "WEB",
			ClientVersion: vs.cfg.ClientVersion,
			HL:            "en",
			GL:            "US",
		}},
		BrowseID: vs.cfg.BrowseID,
	})
	if err != nil {
		return nil, fmt.Errorf("video: encode request: %w", err)
	}

	q := url.Values{"prettyPrint": {"false"}}
	if vs.cfg.APIKey != "" {
		q.Set("key", vs.cfg.APIKey)
	}
	req, err := vs.newRequest(ctx, http.MethodPost, "/youtubei/v1/browse?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", videoBaseURL)
	req.Header.Set("Referer", videoBaseURL+"/")

	payload, err := vs.do(req, cookies)
	if err != nil {
		return nil, err
	}
	return ExtractVideo(payload, vs.now().Unix()), nil
}
