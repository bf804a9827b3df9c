package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	microblogBaseURL      = "https://x.com"
	microblogDefaultCount = 20
	microblogCSRFCookie   = "ct0"
)

// microblogFeatures are the GraphQL feature flags the web client sends with
// HomeTimeline. Unknown or missing flags make the endpoint reject the request.
var microblogFeatures = map[string]bool{
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"verified_phone_label_enabled":                                            false,
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"communities_web_enable_tweet_community_results_fetch":                    true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"articles_preview_enabled":                                                true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"view_counts_everywhere_api_enabled":                                      true,
	"longform_notetweets_consumption_enabled":                                 true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"rweb_video_timestamps_enabled":                                           true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"responsive_web_enhance_cards_enabled":                                    false,
}

// MicroblogConfig holds the request parameters of the home timeline query.
type MicroblogConfig struct {
	QueryID     string // GraphQL persisted query id
	BearerToken string // web client bearer token
	Count       int
}

// MicroblogSource fetches the signed-in user's home timeline.
type MicroblogSource struct {
	fetcher
	cfg MicroblogConfig
}

// NewMicroblog creates a microblog source. QueryID and BearerToken are required.
func NewMicroblog(creds Credentials, cfg MicroblogConfig, opts ...Option) (*MicroblogSource, error) {
	if cfg.QueryID == "" {
		return nil, errors.New("microblog: query id is required")
	}
	if cfg.BearerToken == "" {
		return nil, errors.New("microblog: bearer token is required")
	}
	if cfg.Count <= 0 {
		cfg.Count = microblogDefaultCount
	}
	return &MicroblogSource{
		fetcher: newFetcher(Microblog, creds, microblogBaseURL, opts),
		cfg:     cfg,
	}, nil
}

type timelineRequest struct {
	Variables timelineVariables `json:"variables"`
	Features  map[string]bool   `json:"features"`
}

type timelineVariables struct {
	Count                  int    `json:"count"`
	IncludePromotedContent bool   `json:"includePromotedContent"`
	LatestControlAvailable bool   `json:"latestControlAvailable"`
	RequestContext         string `json:"requestContext"`
}

func (ms *MicroblogSource) Fetch(ctx context.Context) ([]Post, error) {
	cookies, err := ms.cookies(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(timelineRequest{
		Variables: timelineVariables{
			Count:                  ms.cfg.Count,
			IncludePromotedContent: false,
			LatestControlAvailable: true,
			RequestContext:         "launch",
		},
		Features: microblogFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("microblog: encode request: %w", err)
	}

	path := fmt.Sprintf("/i/api/graphql/%s/HomeTimeline", ms.cfg.QueryID)
	req, err := ms.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ms.cfg.BearerToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-csrf-token", cookies[microblogCSRFCookie])
	req.Header.Set("x-twitter-active-user", "yes")
	req.Header.Set("x-twitter-auth-type", "OAuth2Session")
	req.Header.Set("x-twitter-client-language", "en")

	payload, err := ms.do(req, cookies)
	if err != nil {
		return nil, err
	}
	return ExtractMicroblog(payload), nil
}
