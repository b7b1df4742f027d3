package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/eloc-dev/eloc/internal/replcore"
)

const (
	replVersion = "0.1.0"
	replAuthor  = "eloc contributors"
	replLicense = "MIT"
	replLine    = "--------------------------------------------------"
	replBanner  = "eloc — front-end REPL"
	replPrompt  = "eloc> "
)

var cmdRepl = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive front-end session",
	Long:  `Read one top-level item at a time, check it against a persistent namespace, and print its typed IR or diagnostic.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		replcore.New(replBanner, replVersion, replAuthor, replLine, replLicense, replPrompt).Start(os.Stdout)
	},
}
