// Package cli provides the command-line interface for feedweave.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/config"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	configDir = defaultConfigDir()
	verbose   bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "feedweave",
	Short: "Merge social feeds into one interleaved timeline",
	Long: "feedweave fetches your Reddit, microblog and video home feeds with imported browser cookies, " +
		"normalizes them into one post model, and prints a single round-robin feed.",
	SilenceUsage:      true,
	PersistentPreRunE: setupAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("feedweave %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", configDir, "config directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// defaultConfigDir honors FEEDWEAVE_CONFIG_DIR, falling back to ./.feedweave.
func defaultConfigDir() string {
	if dir := os.Getenv("FEEDWEAVE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return ".feedweave"
}

func setupAction(_ *cobra.Command, _ []string) error {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr)))
	return loadEnv(configDir)
}

func newLogHandler(w io.Writer) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !colorEnabled(w),
	})
}

// loadEnv loads dir/.env into the process environment. Variables already set
// win; a missing file is not an error.
func loadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, config.DefaultEnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// colorEnabled reports whether ANSI colors should be written to w.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
