package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func clientFor(rt roundTripFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	return string(b)
}

func jsonPayload(t *testing.T, v any) Payload {
	t.Helper()
	return JSONPayload([]byte(mustJSON(t, v)))
}

func response(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// staticCreds serves fixed cookies for every platform.
type staticCreds map[string]string

func (c staticCreds) Cookies(_ context.Context, _ string) (map[string]string, error) {
	return c, nil
}

func assertUsable(t *testing.T, posts []Post) {
	t.Helper()
	for i, p := range posts {
		if !p.Usable() {
			t.Errorf("post %d is not usable: %+v", i, p)
		}
	}
}
