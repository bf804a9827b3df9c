package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/config"
	"github.com/ppiankov/feedweave/internal/session"
	"github.com/ppiankov/feedweave/internal/source"
	"github.com/ppiankov/feedweave/internal/store"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Manage stored platform cookies",
}

var cookiesImportCmd = &cobra.Command{
	Use:   "import <platform> <file>",
	Short: "Import cookies from a Cookie header or a browser JSON export",
	Args:  cobra.ExactArgs(2),
	RunE:  cookiesImportAction,
}

var cookiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  cookiesListAction,
}

var cookiesClearCmd = &cobra.Command{
	Use:   "clear <platform>",
	Short: "Delete stored cookies of a platform",
	Args:  cobra.ExactArgs(1),
	RunE:  cookiesClearAction,
}

func init() {
	cookiesCmd.AddCommand(cookiesImportCmd, cookiesListCmd, cookiesClearCmd)
	rootCmd.AddCommand(cookiesCmd)
}

func cookiesImportAction(cmd *cobra.Command, args []string) error {
	platform, err := source.ParsePlatform(args[0])
	if err != nil {
		return err
	}
	data, err := readInput(args[1])
	if err != nil {
		return err
	}

	now := time.Now()
	cookies, err := session.Parse(data, now)
	if err != nil {
		return fmt.Errorf("parse cookies: %w", err)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.SaveCookies(cmd.Context(), string(platform), cookies, now); err != nil {
		return err
	}
	fmt.Printf("Imported %d cookies for %s.\n", len(cookies), platform)
	return nil
}

func cookiesListAction(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sessions, err := db.Sessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions stored. Run: feedweave cookies import <platform> <file>")
		return nil
	}

	for _, s := range sessions {
		status := "valid"
		if !s.Valid() {
			status = "invalid"
			if s.Reason != "" {
				status += " (" + s.Reason + ")"
			}
		}
		fmt.Printf("%-10s %3d cookies  imported %-16s %s\n",
			s.Platform, s.Cookies, humanize.Time(s.ImportedAt), status)
	}
	return nil
}

func cookiesClearAction(cmd *cobra.Command, args []string) error {
	platform, err := source.ParsePlatform(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := db.Clear(cmd.Context(), string(platform))
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("No cookies stored for %s.\n", platform)
		return nil
	}
	fmt.Printf("Removed %d cookies for %s.\n", n, platform)
	return nil
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}
