package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pevans/newscapture/retry"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink writes rows to one tab of a Google spreadsheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	retry         retry.Config
	logger        *slog.Logger
}

// NewSheetsSink builds a Sheets client for the given spreadsheet tab.
func NewSheetsSink(ctx context.Context, spreadsheetID, sheetName string, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		retry:         retry.DefaultConfig(),
		logger:        logger,
	}, nil
}

// EnsureHeader overwrites the first row with columns. Retried on transient
// errors since rewriting the same header is harmless.
func (s *SheetsSink) EnsureHeader(ctx context.Context, columns []string) error {
	rng := s.rangeRef(fmt.Sprintf("A1:%s1", columnLetter(len(columns))))
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(columns)}}

	err := retry.Do(ctx, s.retry, "update header", func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	}, retry.IsTransient)
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

// Append inserts rows in one request. It is never retried so a timeout
// cannot duplicate rows.
func (s *SheetsSink) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	width := 0
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, toCells(row))
		width = max(width, len(row))
	}

	rng := s.rangeRef(fmt.Sprintf("A:%s", columnLetter(width)))
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	updated := int64(0)
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRows
	}
	s.logger.Info("sink: rows appended", "rows", len(rows), "updated", updated)
	return nil
}

func (s *SheetsSink) rangeRef(cells string) string {
	if s.sheetName == "" {
		return cells
	}
	return "'" + strings.ReplaceAll(s.sheetName, "'", "''") + "'!" + cells
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// columnLetter converts a 1-based column count to its A1 letter.
func columnLetter(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var _ Sink = (*SheetsSink)(nil)
