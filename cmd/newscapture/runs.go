package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pevans/newscapture/store"
	"github.com/spf13/cobra"
)

var runsOpts struct {
	site   string
	status string
	limit  int
	offset int
	format string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List capture runs from the local ledger",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and the records it assembled",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().StringVar(&runsOpts.site, "site", "", "Only runs of this site")
	runsCmd.Flags().StringVar(&runsOpts.status, "status", "", "Only runs with this status (running, completed, failed, abandoned)")
	runsCmd.Flags().IntVar(&runsOpts.limit, "limit", 20, "Maximum number of runs")
	runsCmd.Flags().IntVar(&runsOpts.offset, "offset", 0, "Number of runs to skip")
	runsCmd.PersistentFlags().StringVar(&runsOpts.format, "format", "table", "Output format: table or json")
	runsCmd.AddCommand(runsShowCmd)
}

func openLedgerOnly() (*app, *store.RunStore, error) {
	a, err := loadApp()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := a.openLedger()
	if err != nil {
		return nil, nil, err
	}
	if ledger == nil {
		return nil, nil, fmt.Errorf("run ledger is disabled (storage.dsn is empty)")
	}
	return a, ledger, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	a, ledger, err := openLedgerOnly()
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := ledger.ListRuns(store.RunFilter{
		Site:   runsOpts.site,
		Status: store.RunStatus(runsOpts.status),
		Limit:  runsOpts.limit,
		Offset: runsOpts.offset,
	})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	switch runsOpts.format {
	case "json":
		return printJSON(os.Stdout, runs)
	case "table":
		printRunsTable(os.Stdout, runs)
		return nil
	default:
		return fmt.Errorf("invalid format %q (valid: table, json)", runsOpts.format)
	}
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}

	a, ledger, err := openLedgerOnly()
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := ledger.GetRun(runID)
	if err != nil {
		return err
	}
	records, err := ledger.ListRecords(runID)
	if err != nil {
		return err
	}

	switch runsOpts.format {
	case "json":
		return printJSON(os.Stdout, map[string]any{"run": run, "records": records})
	case "table":
		printRunDetail(os.Stdout, run, records)
		return nil
	default:
		return fmt.Errorf("invalid format %q (valid: table, json)", runsOpts.format)
	}
}
