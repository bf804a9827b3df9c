package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/feedweave/internal/config"
	"github.com/ppiankov/feedweave/internal/source"
)

// buildSources creates a fetcher for each enabled platform in feed order.
// A platform that cannot be set up is kept as a source that always fails,
// so it is reported next to the others instead of aborting the feed.
func buildSources(cfg *config.Config, creds source.Credentials, opts ...source.Option) []source.Source {
	var out []source.Source
	for _, name := range cfg.Enabled() {
		switch name {
		case string(source.Reddit):
			rc := cfg.Sources.Reddit
			out = append(out, source.NewReddit(creds, rc.Limit, withBase(opts, rc.BaseURL)...))

		case string(source.Microblog):
			mc := cfg.Sources.Microblog
			src, err := source.NewMicroblog(creds, source.MicroblogConfig{
				QueryID:     mc.QueryID,
				BearerToken: mc.BearerToken,
				Count:       mc.Count,
			}, withBase(opts, mc.BaseURL)...)
			if err != nil {
				if mc.BearerToken == "" {
					err = fmt.Errorf("microblog: bearer token not set (export %s)", mc.BearerTokenEnv)
				}
				out = append(out, brokenSource{platform: source.Microblog, err: err})
				continue
			}
			out = append(out, src)

		case string(source.Video):
			vc := cfg.Sources.Video
			out = append(out, source.NewVideo(creds, source.VideoConfig{
				BrowseID:      vc.BrowseID,
				ClientVersion: vc.ClientVersion,
				APIKey:        vc.APIKey,
			}, withBase(opts, vc.BaseURL)...))
		}
	}
	return out
}

func withBase(opts []source.Option, baseURL string) []source.Option {
	if baseURL == "" {
		return opts
	}
	return append(append([]source.Option(nil), opts...), source.WithBaseURL(baseURL))
}

// brokenSource reports a setup error as its fetch result.
type brokenSource struct {
	platform source.Platform
	err      error
}

func (b brokenSource) Platform() source.Platform { return b.platform }

func (b brokenSource) Fetch(context.Context) ([]source.Post, error) { return nil, b.err }
