package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// CSVSink appends rows to a local CSV file.
type CSVSink struct {
	Path string

	mu sync.Mutex
}

// NewCSVSink creates the file's directory if needed.
func NewCSVSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}
	return &CSVSink{Path: path}, nil
}

// EnsureHeader writes columns when the file is empty or missing. A file
// whose first row differs is left alone.
func (s *CSVSink) EnsureHeader(ctx context.Context, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, err := s.firstRow()
	if err != nil {
		return err
	}
	if first != nil {
		if !slices.Equal(first, columns) {
			return fmt.Errorf("csv file %s has a different header", s.Path)
		}
		return nil
	}
	return s.write([][]string{columns})
}

// Append adds rows at the end of the file.
func (s *CSVSink) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(rows)
}

func (s *CSVSink) firstRow() ([]string, error) {
	f, err := os.Open(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	row, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	return row, nil
}

func (s *CSVSink) write(rows [][]string) error {
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return f.Close()
}
