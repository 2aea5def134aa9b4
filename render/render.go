// Package render wraps the headless browser that turns a URL into a live
// DOM, an HTML snapshot and a fixed-size paged document.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"
)

// ErrNavigation marks a page that could not be reached: timeout, DNS
// failure, refused connection.
var ErrNavigation = errors.New("navigation failed")

// NavigationError records which URL failed to load and why.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Is reports ErrNavigation as a match so callers can use errors.Is.
func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }

// IsNavigationFailure reports whether err means the page never loaded.
func IsNavigationFailure(err error) bool {
	return errors.Is(err, ErrNavigation)
}

// Browser hands out short-lived pages from one browsing context.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one tab. Callers must Close it when done.
type Page interface {
	// Navigate loads url and waits for DOMContentLoaded plus the settle
	// delay. Failures are *NavigationError.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// URL is the last URL navigated to.
	URL() string
	// HTML returns the serialized current DOM.
	HTML(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript function expression and returns its
	// result.
	Evaluate(ctx context.Context, js string, args ...any) (gson.JSON, error)
	// PDF renders the page as an A4 document with 10mm margins.
	PDF(ctx context.Context) ([]byte, error)
	Close() error
}

// Snapshot parses the page's current DOM. The raw HTML is returned too so
// callers can run regex scans over it.
func Snapshot(ctx context.Context, p Page) (*goquery.Document, string, error) {
	html, err := p.HTML(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, html, nil
}

// Loader opens a throwaway page per URL and returns its parsed DOM. The page
// is closed before Load returns.
type Loader struct {
	Browser Browser
	Timeout time.Duration
}

// Load navigates a fresh page to pageURL and snapshots it.
func (l Loader) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	page, err := l.Browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(ctx, pageURL, l.Timeout); err != nil {
		return nil, err
	}
	doc, _, err := Snapshot(ctx, page)
	return doc, err
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
