package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/config"
	"github.com/ppiankov/feedweave/internal/scheduler"
	"github.com/ppiankov/feedweave/internal/store"
)

var watchNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the feed on a cron schedule until interrupted",
	RunE:  watchAction,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNow, "now", true, "print the feed once before the first scheduled run")
	watchCmd.Flags().StringVar(&feedFormat, "format", "", "output format: terminal, json, markdown")
	rootCmd.AddCommand(watchCmd)
}

func watchAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
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

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(cfg.Watch.Timezone, 0)
	if err != nil {
		return err
	}
	job := func(ctx context.Context) error {
		return runFeed(ctx, cfg, db, formatter, cfg.Feed.Limit, os.Stdout)
	}
	if err := sched.AddJob("feed", cfg.Watch.Schedule, job); err != nil {
		return err
	}

	sched.Start(ctx)
	for _, j := range sched.Jobs() {
		slog.Info("watching", "schedule", cfg.Watch.Schedule, "next", j.NextRun.In(sched.Location()).Format("15:04 MST"))
	}

	if watchNow {
		if err := sched.RunNow("feed", job); err != nil {
			slog.Error("feed failed", "err", err)
		}
	}

	<-ctx.Done()
	<-sched.Stop().Done()
	slog.Info("watch stopped")
	return nil
}
