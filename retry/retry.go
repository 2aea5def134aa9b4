// Package retry retries idempotent collaborator calls with exponential
// backoff. Non-idempotent calls (uploads, row appends) must not use it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
)

const (
	DefaultMaxRetries = 3

	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// Operation is a retryable call. It returns nil on success.
type Operation func() error

// ShouldRetryFunc reports whether err is worth another attempt.
type ShouldRetryFunc func(error) bool

// Config controls the backoff policy.
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the recommended policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do runs op until it succeeds, shouldRetry rejects its error, the retry
// budget is spent or ctx is done.
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetry ShouldRetryFunc) error {
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var lastErr error
	permanent := false
	retryable := func() error {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if shouldRetry(err) {
			return err
		}
		permanent = true
		return backoff.Permanent(err)
	}

	err := backoff.Retry(retryable, newBackOffPolicy(ctx, cfg))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s failed: context done: %w", operationName, err)
	}

	if permanent {
		return lastErr
	}

	return fmt.Errorf("%s failed after %d retries: %w", operationName, cfg.MaxRetries, lastErr)
}

// IsTransient treats rate limiting, server errors and network timeouts as
// retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
