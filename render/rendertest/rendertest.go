// Package rendertest provides an in-memory render.Browser for tests.
package rendertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pevans/newscapture/render"
	"github.com/ysmood/gson"
)

// ErrNotFound is the navigation cause for URLs with no registered page.
var ErrNotFound = errors.New("no such page")

// EvalFunc answers Evaluate calls for a page.
type EvalFunc func(pageURL, js string, args ...any) (any, error)

// Browser serves canned HTML keyed by URL and counts page handles.
type Browser struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	pdfErrs  map[string]error
	visits   map[string]int
	evals    []string
	open     int
	opened   int
	closed   bool

	// Eval, when set, answers Evaluate calls.
	Eval EvalFunc
}

// New returns an empty fake browser.
func New() *Browser {
	return &Browser{
		pages:    make(map[string]string),
		failures: make(map[string]error),
		pdfErrs:  make(map[string]error),
		visits:   make(map[string]int),
	}
}

// AddPage registers html to be served at url.
func (b *Browser) AddPage(url, html string) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[url] = html
	return b
}

// Fail makes navigation to url fail with cause.
func (b *Browser) Fail(url string, cause error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[url] = cause
	return b
}

// FailPDF makes rendering url to PDF fail with cause.
func (b *Browser) FailPDF(url string, cause error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pdfErrs[url] = cause
	return b
}

// Visits reports how many times url was navigated to.
func (b *Browser) Visits(url string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visits[url]
}

// OpenPages reports how many page handles are still open.
func (b *Browser) OpenPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// PagesOpened reports how many page handles were ever created.
func (b *Browser) PagesOpened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// Evaluations returns every script passed to Evaluate.
func (b *Browser) Evaluations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.evals...)
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// NewPage opens a fake tab.
func (b *Browser) NewPage(ctx context.Context) (render.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser closed")
	}
	b.open++
	b.opened++
	return &page{b: b}, nil
}

// Close marks the browser closed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type page struct {
	b      *Browser
	url    string
	html   string
	closed bool
}

func (p *page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.b.visits[url]++

	if err := ctx.Err(); err != nil {
		return &render.NavigationError{URL: url, Err: err}
	}
	if cause, ok := p.b.failures[url]; ok {
		return &render.NavigationError{URL: url, Err: cause}
	}
	html, ok := p.b.pages[url]
	if !ok {
		return &render.NavigationError{URL: url, Err: ErrNotFound}
	}
	p.url = url
	p.html = html
	return nil
}

func (p *page) URL() string { return p.url }

func (p *page) HTML(ctx context.Context) (string, error) {
	if p.closed {
		return "", errors.New("page closed")
	}
	return p.html, nil
}

func (p *page) Evaluate(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	p.b.mu.Lock()
	p.b.evals = append(p.b.evals, js)
	eval := p.b.Eval
	p.b.mu.Unlock()

	if eval == nil {
		return gson.New(nil), nil
	}
	v, err := eval(p.url, js, args...)
	return gson.New(v), err
}

func (p *page) PDF(ctx context.Context) ([]byte, error) {
	p.b.mu.Lock()
	cause := p.b.pdfErrs[p.url]
	p.b.mu.Unlock()
	if cause != nil {
		return nil, cause
	}
	return []byte(fmt.Sprintf("%%PDF-1.4 fake snapshot of %s", p.url)), nil
}

func (p *page) Close() error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.b.open--
	}
	return nil
}
