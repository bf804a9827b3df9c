package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/aggregate"
	"github.com/ppiankov/feedweave/internal/config"
	"github.com/ppiankov/feedweave/internal/digest"
	"github.com/ppiankov/feedweave/internal/privacy"
	"github.com/ppiankov/feedweave/internal/source"
	"github.com/ppiankov/feedweave/internal/store"
)

var (
	feedFormat string
	feedLimit  int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Fetch all enabled sources and print one interleaved feed",
	RunE:  feedAction,
}

func init() {
	feedCmd.Flags().StringVar(&feedFormat, "format", "", "output format: terminal, json, markdown")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 0, "maximum posts to show (0 shows all)")
	rootCmd.AddCommand(feedCmd)
}

func feedAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	limit := cfg.Feed.Limit
	if cmd.Flags().Changed("limit") {
		limit = feedLimit
	}
	formatter, err := newFormatter(cfg, feedFormat)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	return runFeed(cmd.Context(), cfg, db, formatter, limit, os.Stdout)
}

// runFeed collects every enabled source, interleaves the results and renders
// them to out. Source failures are rendered, not returned.
func runFeed(ctx context.Context, cfg *config.Config, db *store.Store, formatter digest.Formatter, limit int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.With("run", uuid.NewString())

	redactor, err := newRedactor(cfg)
	if err != nil {
		return err
	}

	sources := buildSources(cfg, db)
	fetchCtx := ctx
	if cfg.Feed.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.Feed.Timeout.Duration)
		defer cancel()
	}

	start := time.Now()
	results := aggregate.Collect(fetchCtx, sources)
	invalidateRejected(ctx, db, logger, results)

	entries := aggregate.Interleave(aggregate.Streams(results))
	input := digest.FeedInput{
		Entries:  digest.Limit(redactor.Entries(entries), limit),
		Failures: digest.FailuresFrom(results),
		Sources:  len(sources),
		Now:      time.Now(),
	}
	logger.Info("feed collected",
		"sources", len(sources),
		"posts", len(entries),
		"failed", len(input.Failures),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return formatter.Format(out, input)
}

// invalidateRejected marks sessions whose cookies the platform refused.
func invalidateRejected(ctx context.Context, db *store.Store, logger *slog.Logger, results []aggregate.Result) {
	for _, res := range results {
		var authErr *source.AuthError
		if !errors.As(res.Err, &authErr) || authErr.Status == 0 {
			continue
		}
		reason := fmt.Sprintf("rejected with status %d", authErr.Status)
		if err := db.Invalidate(ctx, string(res.Platform), reason, time.Now()); err != nil {
			logger.Warn("invalidate session", "platform", res.Platform, "err", err)
			continue
		}
		logger.Info("session invalidated", "platform", res.Platform, "reason", reason)
	}
}

func newFormatter(cfg *config.Config, override string) (digest.Formatter, error) {
	format := cfg.Feed.Format
	if override != "" {
		format = override
	}
	return digest.New(format, colorEnabled(os.Stdout))
}

func newRedactor(cfg *config.Config) (*privacy.Redactor, error) {
	if !cfg.Privacy.Redact.Enabled {
		return nil, nil
	}
	r, err := privacy.NewRedactor(cfg.Privacy.Redact.Patterns)
	if err != nil {
		return nil, fmt.Errorf("privacy.redact: %w", err)
	}
	return r, nil
}
