package main

import (
	"fmt"

	"github.com/pevans/newscapture/sites"
	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the supported news sites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := [][]string{{"NAME", "HOMEPAGE", "ARTICLE PATTERN", "FEED"}}
		for _, name := range sites.Names() {
			adapter, err := sites.Lookup(name)
			if err != nil {
				return err
			}
			feed := adapter.FeedURL()
			if feed == "" {
				feed = "-"
			}
			rows = append(rows, []string{name, adapter.Homepage(), adapter.LinkPattern().String(), feed})
		}
		for _, line := range alignColumns(rows) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
