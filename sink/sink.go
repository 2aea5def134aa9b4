// Package sink appends finished records to tabular storage.
package sink

import (
	"context"
	"errors"
)

// Sink receives rows in the fixed column order.
type Sink interface {
	// EnsureHeader writes columns as the first row. It is idempotent.
	EnsureHeader(ctx context.Context, columns []string) error
	// Append adds rows after the last non-empty row. It is not idempotent.
	Append(ctx context.Context, rows [][]string) error
}

// Multi fans every call out to all sinks and joins their errors.
type Multi []Sink

func (m Multi) EnsureHeader(ctx context.Context, columns []string) error {
	var errs []error
	for _, s := range m {
		if err := s.EnsureHeader(ctx, columns); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Append(ctx context.Context, rows [][]string) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
