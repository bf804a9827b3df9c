// Package main provides the feedweave CLI entry point.
package main

import (
	"os"

	"github.com/ppiankov/feedweave/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
