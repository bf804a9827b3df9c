package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/feedweave/internal/source"
)

const (
	DefaultConfigFile      = "config.yaml"
	DefaultEnvFile         = ".env"
	DefaultStoragePath     = ".feedweave/sessions.db"
	DefaultFormat          = "terminal"
	DefaultTimeout         = 30 * time.Second
	DefaultSchedule        = "*/30 * * * *"
	DefaultTimezone        = "UTC"
	DefaultRedditLimit     = 25
	DefaultMicroblogCount  = 20
	DefaultMicroblogBearer = "MICROBLOG_BEARER_TOKEN"
	DefaultVideoAPIKey     = "VIDEO_API_KEY"
)

// DefaultOrder is the feed stream order when none is configured.
var DefaultOrder = platformNames()

func platformNames() []string {
	names := make([]string, 0, len(source.Platforms))
	for _, p := range source.Platforms {
		names = append(names, string(p))
	}
	return names
}

func knownPlatform(name string) bool {
	for _, p := range source.Platforms {
		if string(p) == name {
			return true
		}
	}
	return false
}

var validFormats = map[string]bool{"terminal": true, "json": true, "markdown": true}

// Duration wraps time.Duration for YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Sources SourcesConfig `yaml:"sources"`
	Feed    FeedConfig    `yaml:"feed"`
	Watch   WatchConfig   `yaml:"watch"`
	Storage StorageConfig `yaml:"storage"`
	Privacy PrivacyConfig `yaml:"privacy"`
}

type SourcesConfig struct {
	Reddit    RedditConfig    `yaml:"reddit"`
	Microblog MicroblogConfig `yaml:"microblog"`
	Video     VideoConfig     `yaml:"video"`
}

type RedditConfig struct {
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Limit   int    `yaml:"limit"`
}

type MicroblogConfig struct {
	Enabled        *bool  `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Count          int    `yaml:"count"`
	QueryID        string `yaml:"query_id"`
	BearerTokenEnv string `yaml:"bearer_token_env"`

	// Resolved from env var at load time.
	BearerToken string `yaml:"-"`
}

type VideoConfig struct {
	Enabled       *bool  `yaml:"enabled"`
	BaseURL       string `yaml:"base_url"`
	BrowseID      string `yaml:"browse_id"`
	ClientVersion string `yaml:"client_version"`
	APIKeyEnv     string `yaml:"api_key_env"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type FeedConfig struct {
	Order   []string `yaml:"order"`
	Timeout Duration `yaml:"timeout"`
	Format  string   `yaml:"format"`
	Limit   int      `yaml:"limit"` // 0 shows every post
}

type WatchConfig struct {
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type PrivacyConfig struct {
	Redact RedactConfig `yaml:"redact"`
}

type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns"`
}

// IsEnabled reports whether a source is enabled. Sources are on unless
// explicitly disabled.
func IsEnabled(flag *bool) bool {
	return flag == nil || *flag
}

// Enabled returns the platforms to fetch, in feed order.
func (c *Config) Enabled() []string {
	var out []string
	for _, name := range c.Feed.Order {
		var on bool
		switch name {
		case "reddit":
			on = IsEnabled(c.Sources.Reddit.Enabled)
		case "microblog":
			on = IsEnabled(c.Sources.Microblog.Enabled)
		case "video":
			on = IsEnabled(c.Sources.Video.Enabled)
		}
		if on {
			out = append(out, name)
		}
	}
	return out
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if len(cfg.Feed.Order) == 0 {
		cfg.Feed.Order = append([]string(nil), DefaultOrder...)
	}
	if cfg.Feed.Timeout.Duration == 0 {
		cfg.Feed.Timeout.Duration = DefaultTimeout
	}
	if cfg.Feed.Format == "" {
		cfg.Feed.Format = DefaultFormat
	}
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = DefaultSchedule
	}
	if cfg.Watch.Timezone == "" {
		cfg.Watch.Timezone = DefaultTimezone
	}
	if cfg.Sources.Reddit.Limit == 0 {
		cfg.Sources.Reddit.Limit = DefaultRedditLimit
	}
	if cfg.Sources.Microblog.Count == 0 {
		cfg.Sources.Microblog.Count = DefaultMicroblogCount
	}
	if cfg.Sources.Microblog.BearerTokenEnv == "" {
		cfg.Sources.Microblog.BearerTokenEnv = DefaultMicroblogBearer
	}
	if cfg.Sources.Video.APIKeyEnv == "" {
		cfg.Sources.Video.APIKeyEnv = DefaultVideoAPIKey
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Sources.Microblog.BearerTokenEnv != "" {
		cfg.Sources.Microblog.BearerToken = os.Getenv(cfg.Sources.Microblog.BearerTokenEnv)
	}
	if cfg.Sources.Video.APIKeyEnv != "" {
		cfg.Sources.Video.APIKey = os.Getenv(cfg.Sources.Video.APIKeyEnv)
	}
}

func validate(cfg *Config) error {
	seen := make(map[string]bool)
	for _, name := range cfg.Feed.Order {
		if !knownPlatform(name) {
			return fmt.Errorf("feed.order: unknown platform %q (want %s)", name, strings.Join(platformNames(), ", "))
		}
		if seen[name] {
			return fmt.Errorf("feed.order: duplicate platform %q", name)
		}
		seen[name] = true
	}
	if len(cfg.Enabled()) == 0 {
		return errors.New("sources: at least one source must be enabled and listed in feed.order")
	}

	if !validFormats[cfg.Feed.Format] {
		return fmt.Errorf("feed.format: unknown format %q (want terminal, json or markdown)", cfg.Feed.Format)
	}
	if cfg.Feed.Limit < 0 {
		return fmt.Errorf("feed.limit: must not be negative, got %d", cfg.Feed.Limit)
	}
	if cfg.Feed.Timeout.Duration < 0 {
		return fmt.Errorf("feed.timeout: must not be negative, got %s", cfg.Feed.Timeout.Duration)
	}

	if cfg.Sources.Reddit.Limit < 0 || cfg.Sources.Reddit.Limit > 100 {
		return fmt.Errorf("sources.reddit.limit: want 1-100, got %d", cfg.Sources.Reddit.Limit)
	}
	if IsEnabled(cfg.Sources.Microblog.Enabled) && seen["microblog"] && cfg.Sources.Microblog.QueryID == "" {
		return errors.New("sources.microblog.query_id: required when microblog is enabled")
	}

	if _, err := time.LoadLocation(cfg.Watch.Timezone); err != nil {
		return fmt.Errorf("watch.timezone: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("watch.schedule: %w", err)
	}

	return nil
}
