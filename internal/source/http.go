package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/feedweave/internal/session"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 16 << 20
	maxErrorBody    = 200
	browserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"
)

// HTTPClient is the subset of *http.Client used by sources.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials supplies stored cookies per platform.
type Credentials interface {
	Cookies(ctx context.Context, platform string) (map[string]string, error)
}

// Option configures a source.
type Option func(*fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(f *fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithBaseURL points the source at a different host.
func WithBaseURL(u string) Option {
	return func(f *fetcher) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// fetcher holds what every source needs to issue one authenticated request.
type fetcher struct {
	platform Platform
	creds    Credentials
	client   HTTPClient
	baseURL  string
}

func newFetcher(p Platform, creds Credentials, baseURL string, opts []Option) fetcher {
	f := fetcher{
		platform: p,
		creds:    creds,
		client:   &http.Client{Timeout: defaultTimeout},
		baseURL:  baseURL,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func (f *fetcher) Platform() Platform {
	return f.platform
}

// cookies loads stored cookies. Missing cookies are an auth failure that is
// reported without contacting the platform.
func (f *fetcher) cookies(ctx context.Context) (map[string]string, error) {
	if f.creds == nil {
		return nil, &AuthError{Platform: f.platform}
	}
	cookies, err := f.creds.Cookies(ctx, string(f.platform))
	if err != nil {
		return nil, fmt.Errorf("%s: load cookies: %w", f.platform, err)
	}
	if len(cookies) == 0 {
		return nil, &AuthError{Platform: f.platform}
	}
	return cookies, nil
}

// do sends req with the cookie header and returns the decoded payload.
func (f *fetcher) do(req *http.Request, cookies map[string]string) (Payload, error) {
	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Cookie", session.Header(cookies))

	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("%s: request: %w", f.platform, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Payload{}, fmt.Errorf("%s: read body: %w", f.platform, err)
	}

	if err := statusError(f.platform, resp.StatusCode, body); err != nil {
		return Payload{}, err
	}
	return DecodePayload(resp.Header.Get("Content-Type"), body), nil
}

// statusError maps a non-200 status to AuthError (401, 403) or FetchError.
func statusError(p Platform, status int, body []byte) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Platform: p, Status: status}
	default:
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		return &FetchError{Platform: p, Status: status, Body: text}
	}
}

// newRequest builds a request against the source's base URL.
func (f *fetcher) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", f.platform, err)
	}
	return req, nil
}
