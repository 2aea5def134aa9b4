package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// Config configures the rod-backed browser.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome. Empty
	// launches a local one.
	RemoteURL string
	Headless  bool

	ViewportWidth  int
	ViewportHeight int

	// Settle is how long to wait after DOMContentLoaded for scripts to
	// populate the page.
	Settle time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1600
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 4000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// A4 with 10mm margins, in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	pageMargin  = 0.3937
)

// RodBrowser is a Browser backed by Chrome over the DevTools protocol with
// stealth patches applied to every page.
type RodBrowser struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Launch starts Chrome (or connects to a remote instance).
func Launch(ctx context.Context, cfg Config) (*RodBrowser, error) {
	cfg.defaults()
	log := cfg.Logger

	var wsURL string
	var lnch *launcher.Launcher
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		lnch = launcher.New().Context(ctx).Headless(cfg.Headless)
		lnch = lnch.Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		log.Info("browser: launched local chrome", "url", wsURL, "headless", cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	return &RodBrowser{cfg: cfg, browser: b, lnch: lnch}, nil
}

// NewPage opens a stealth tab sized to the configured viewport.
func (b *RodBrowser) NewPage(ctx context.Context) (Page, error) {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("browser: closed")
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	err = page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		b.cfg.Logger.Warn("browser: set viewport failed", "error", err)
	}

	return &rodPage{page: page, settle: b.cfg.Settle}, nil
}

// Close shuts the browser down and removes the launched process.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

type rodPage struct {
	page   *rod.Page
	settle time.Duration
	url    string
}

func (p *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	page := p.page.Context(navCtx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	p.url = url

	return Sleep(ctx, p.settle)
}

func (p *rodPage) URL() string { return p.url }

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

func (p *rodPage) Evaluate(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value, nil
}

func (p *rodPage) PDF(ctx context.Context) ([]byte, error) {
	stream, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:      gson.Num(paperWidth),
		PaperHeight:     gson.Num(paperHeight),
		MarginTop:       gson.Num(pageMargin),
		MarginBottom:    gson.Num(pageMargin),
		MarginLeft:      gson.Num(pageMargin),
		MarginRight:     gson.Num(pageMargin),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: print to pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("browser: read pdf: %w", err)
	}
	return data, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
