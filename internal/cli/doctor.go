package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/config"
	"github.com/ppiankov/feedweave/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, session store and credentials",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "%s: %v", config.DefaultConfigFile, err)
		return fmt.Errorf("some checks failed")
	}
	printCheck(true, "%s (sources: %s)", config.DefaultConfigFile, strings.Join(cfg.Enabled(), ", "))

	if _, err := os.Stat(filepath.Join(configDir, config.DefaultEnvFile)); err != nil {
		printInfo("no %s in %s, secrets must come from the environment", config.DefaultEnvFile, configDir)
	}

	// Secrets
	for _, name := range cfg.Enabled() {
		switch name {
		case "microblog":
			env := cfg.Sources.Microblog.BearerTokenEnv
			if cfg.Sources.Microblog.BearerToken == "" {
				printCheck(false, "microblog bearer token (%s not set)", env)
				ok = false
			} else {
				printCheck(true, "microblog bearer token (%s)", env)
			}
		case "video":
			if cfg.Sources.Video.APIKey == "" {
				printInfo("video api key (%s) not set, requests go without key", cfg.Sources.Video.APIKeyEnv)
			}
		}
	}

	// Database
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		printCheck(false, "database: %v", err)
		return fmt.Errorf("some checks failed")
	}
	defer func() { _ = db.Close() }()

	size, err := db.Size(ctx)
	if err != nil {
		printCheck(false, "database %s: %v", cfg.Storage.Path, err)
		ok = false
	} else {
		printCheck(true, "database %s (%s)", cfg.Storage.Path, humanize.Bytes(uint64(size)))
	}

	// Sessions
	if !checkSessions(ctx, db, cfg) {
		ok = false
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

// checkSessions reports the stored session of every enabled platform.
func checkSessions(ctx context.Context, db *store.Store, cfg *config.Config) bool {
	sessions, err := db.Sessions(ctx)
	if err != nil {
		printCheck(false, "sessions: %v", err)
		return false
	}
	byPlatform := make(map[string]store.Session, len(sessions))
	for _, s := range sessions {
		byPlatform[s.Platform] = s
	}

	ok := true
	for _, name := range cfg.Enabled() {
		s, found := byPlatform[name]
		switch {
		case !found || s.Cookies == 0:
			printCheck(false, "%s session (run 'feedweave cookies import %s <file>')", name, name)
			ok = false
		case !s.Valid():
			printCheck(false, "%s session invalidated %s: %s", name, humanize.Time(s.InvalidatedAt), s.Reason)
			ok = false
		default:
			printCheck(true, "%s session (%d cookies, imported %s)", name, s.Cookies, humanize.Time(s.ImportedAt))
		}
	}
	return ok
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
