package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/feedweave/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig), 0o644)
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	envPath := filepath.Join(configDir, config.DefaultEnvFile)
	wrote, err = writeIfNotExists(envPath, []byte(exampleEnv), 0o600)
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
		fmt.Println("Next: feedweave cookies import <platform> <file>")
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte, perm os.FileMode) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# feedweave configuration

sources:
  reddit:
    enabled: true
    limit: 25
  microblog:
    # Enable after setting query_id, the GraphQL id of the HomeTimeline
    # operation as seen in browser dev tools.
    enabled: false
    count: 20
    query_id: ""
    bearer_token_env: MICROBLOG_BEARER_TOKEN
  video:
    enabled: true
    browse_id: FEwhat_to_watch
    api_key_env: VIDEO_API_KEY

feed:
  order: [reddit, microblog, video]
  timeout: 30s
  format: terminal
  limit: 0

watch:
  schedule: "*/30 * * * *"
  timezone: "UTC"

storage:
  path: .feedweave/sessions.db

privacy:
  redact:
    enabled: false
    patterns: []
`

const exampleEnv = `# Secrets for feedweave. Variables already set in the environment win.
MICROBLOG_BEARER_TOKEN=
VIDEO_API_KEY=
`
