package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/feedweave/internal/aggregate"
	"github.com/ppiankov/feedweave/internal/digest"
	"github.com/ppiankov/feedweave/internal/source"
)

var (
	extractHTML   bool
	extractFormat string
)

var extractCmd = &cobra.Command{
	Use:   "extract <platform> <file>",
	Short: "Extract posts from a saved response body",
	Long: "Runs one platform's extractor over a response saved from the browser " +
		"(use - to read stdin). JSON bodies are detected automatically.",
	Args: cobra.ExactArgs(2),
	RunE: extractAction,
}

func init() {
	extractCmd.Flags().BoolVar(&extractHTML, "html", false, "treat the body as HTML")
	extractCmd.Flags().StringVar(&extractFormat, "format", "terminal", "output format: terminal, json, markdown")
	rootCmd.AddCommand(extractCmd)
}

func extractAction(_ *cobra.Command, args []string) error {
	platform, err := source.ParsePlatform(args[0])
	if err != nil {
		return err
	}

	body, err := readInput(args[1])
	if err != nil {
		return err
	}

	payload := source.SniffPayload(body)
	if extractHTML {
		payload = source.HTMLPayload(string(body))
	}

	formatter, err := digest.New(extractFormat, colorEnabled(os.Stdout))
	if err != nil {
		return err
	}

	now := time.Now()
	posts := source.Extract(platform, payload, now)
	return formatter.Format(os.Stdout, digest.FeedInput{
		Entries: aggregate.Interleave([]aggregate.Stream{{Platform: platform, Posts: posts}}),
		Sources: 1,
		Now:     now,
	})
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
