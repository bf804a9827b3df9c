// Package session parses exported browser cookies and renders Cookie headers.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Cookie is one entry of a browser cookie export.
type Cookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Domain  string  `json:"domain,omitempty"`
	Expires float64 `json:"expires,omitempty"` // epoch seconds, 0 or negative for session cookies
}

type cookieFile struct {
	Cookies []Cookie `json:"cookies"`
}

// Parse accepts either a raw Cookie header ("a=1; b=2") or a JSON export.
// Expired cookies in a JSON export are skipped.
func Parse(data []byte, now time.Time) (map[string]string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("cookie data is empty")
	}

	var cookies map[string]string
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var err error
		cookies, err = ParseJSON([]byte(trimmed), now)
		if err != nil {
			return nil, err
		}
	} else {
		cookies = ParseHeader(trimmed)
	}

	if len(cookies) == 0 {
		return nil, errors.New("no cookies found")
	}
	return cookies, nil
}

// ParseHeader parses a Cookie header value. A leading "Cookie:" is ignored,
// as are pairs without a name.
func ParseHeader(header string) map[string]string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "cookie:") {
		header = header[7:]
	}

	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies
}

// ParseJSON parses a JSON array of cookies, or an object with a "cookies" array.
func ParseJSON(data []byte, now time.Time) (map[string]string, error) {
	var list []Cookie
	if err := json.Unmarshal(data, &list); err != nil {
		var file cookieFile
		if err2 := json.Unmarshal(data, &file); err2 != nil {
			return nil, fmt.Errorf("parse cookie json: %w", err)
		}
		list = file.Cookies
	}

	cookies := make(map[string]string, len(list))
	for _, c := range list {
		if c.Name == "" {
			continue
		}
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			continue
		}
		cookies[c.Name] = c.Value
	}
	return cookies, nil
}

// Header renders cookies as a Cookie header value, sorted by name.
func Header(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+cookies[name])
	}
	return strings.Join(parts, "; ")
}
