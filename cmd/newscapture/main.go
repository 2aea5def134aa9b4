package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "newscapture"

// Flags are the persistent flags shared by every command.
type Flags struct {
	ConfigPath string
	LogLevel   string
}

var flags Flags

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Capture news articles as PDF snapshots and metadata rows",
	Long: `newscapture visits news site homepages, discovers article links, archives
a PDF snapshot of every article and appends one metadata row per article
(title, authors, contacts, affiliations, media links, AI disclosure) to a
spreadsheet.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Config file (default ~/.newscapture/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (NEWSCAPTURE_LOG_LEVEL)")

	rootCmd.AddCommand(runCmd, watchCmd, sitesCmd, runsCmd, serveCmd, authCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
