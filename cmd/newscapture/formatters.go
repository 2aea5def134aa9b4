package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/pevans/newscapture/capture"
	"github.com/pevans/newscapture/store"
)

const timeFormat = "2006-01-02 15:04"

// printReport prints the outcome of one session.
func printReport(w io.Writer, report *capture.Report) {
	fmt.Fprintf(w, "%s: %d discovered, %d assembled, %d skipped, %d not archived (run %s)\n",
		report.Site,
		report.Discovered(),
		len(report.Records()),
		len(report.Skipped()),
		report.NotArchived(),
		report.RunID.String(),
	)
	for _, outcome := range report.Skipped() {
		fmt.Fprintf(w, "   skipped %s: %s\n", outcome.URL, outcome.Reason)
	}
}

// printRunsTable prints runs newest first, one per line.
func printRunsTable(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs to display.")
		return
	}

	rows := [][]string{{"ID", "SITE", "STATUS", "STARTED", "FOUND", "ROWS", "SKIPPED", "UNARCHIVED"}}
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunID.String()[:8],
			run.Site,
			string(run.Status),
			run.StartedAt.Local().Format(timeFormat),
			fmt.Sprint(run.Discovered),
			fmt.Sprint(run.Assembled),
			fmt.Sprint(run.Skipped),
			fmt.Sprint(run.NotArchived),
		})
	}
	for _, line := range alignColumns(rows) {
		fmt.Fprintln(w, line)
	}
}

// printRunDetail prints one run and its records.
func printRunDetail(w io.Writer, run *store.Run, records []store.StoredRecord) {
	fmt.Fprintf(w, "Run:      %s\n", run.RunID.String())
	fmt.Fprintf(w, "Site:     %s\n", run.Site)
	fmt.Fprintf(w, "Status:   %s\n", run.Status)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format(timeFormat))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", run.FinishedAt.Local().Format(timeFormat))
	}
	if run.FolderID != nil {
		fmt.Fprintf(w, "Folder:   %s\n", *run.FolderID)
	}
	if run.LastError != nil {
		fmt.Fprintf(w, "Error:    %s\n", *run.LastError)
	}
	fmt.Fprintln(w)

	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	rows := [][]string{{"#", "ARCHIVED", "TITLE", "AUTHORS", "DATE"}}
	for _, rec := range records {
		archived := "no"
		if rec.Archived {
			archived = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprint(rec.Position + 1),
			archived,
			runewidth.Truncate(rec.Record.Title, 60, "..."),
			runewidth.Truncate(rec.Record.Author(), 30, "..."),
			rec.Record.Date,
		})
	}
	for _, line := range alignColumns(rows) {
		fmt.Fprintln(w, line)
	}
}

// printJSON prints v indented.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// alignColumns pads every cell to its column's display width, measured in
// terminal cells rather than bytes.
func alignColumns(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}
