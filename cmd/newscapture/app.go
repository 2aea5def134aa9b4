package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pevans/newscapture/archive"
	"github.com/pevans/newscapture/capture"
	"github.com/pevans/newscapture/config"
	"github.com/pevans/newscapture/credentials"
	"github.com/pevans/newscapture/render"
	"github.com/pevans/newscapture/sink"
	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
	"google.golang.org/api/option"
)

// app holds the loaded configuration and the collaborators built from it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	ledger *store.RunStore
}

// loadApp reads the configuration and sets up logging.
func loadApp() (*app, error) {
	cfg, err := config.Load(flags.ConfigPath, os.Getenv)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

// openLedger opens the run ledger, or returns nil when storage is disabled.
func (a *app) openLedger() (*store.RunStore, error) {
	if a.ledger != nil || a.cfg.Storage.DSN == "" {
		return a.ledger, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.DSN), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	ledger, err := store.NewRunStore(a.cfg.Storage.DSN, a.cfg.Storage.StaleAfter.Std())
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	a.ledger = ledger
	return ledger, nil
}

func (a *app) Close() {
	if a.ledger != nil {
		a.ledger.Close()
	}
}

// credentialProvider builds the token provider. Missing tokens are
// authorized interactively on the terminal.
func (a *app) credentialProvider() (*credentials.FileProvider, error) {
	return credentials.NewFileProvider(
		a.cfg.Google.CredentialsFile,
		a.cfg.Google.TokenFile,
		credentials.PromptAuthorizer{In: os.Stdin, Out: os.Stderr},
		a.logger,
	)
}

// selectSites resolves names (or the configured list, or every site) to
// adapters with their configured overrides.
func (a *app) selectSites(names []string) ([]sites.Adapter, error) {
	if len(names) == 0 {
		names = a.cfg.Capture.Sites
	}
	if len(names) == 0 {
		names = sites.Names()
	}

	var adapters []sites.Adapter
	var errs []error
	for _, name := range names {
		adapter, err := sites.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		override := a.cfg.Sites[name]
		adapters = append(adapters, sites.WithOverrides(adapter, override.Exclude, override.FeedURL))
	}
	return adapters, errors.Join(errs...)
}

// serviceConfig wires every collaborator the configuration enables.
func (a *app) serviceConfig(ctx context.Context, names []string) (capture.ServiceConfig, error) {
	cfg := a.cfg
	adapters, err := a.selectSites(names)
	if err != nil {
		return capture.ServiceConfig{}, err
	}

	session := capture.Config{
		Launch: func(ctx context.Context) (render.Browser, error) {
			return render.Launch(ctx, render.Config{
				RemoteURL:      cfg.Browser.RemoteURL,
				Headless:       cfg.Browser.Headless,
				ViewportWidth:  cfg.Browser.ViewportWidth,
				ViewportHeight: cfg.Browser.ViewportHeight,
				Settle:         cfg.Browser.Settle.Std(),
				Logger:         a.logger,
			})
		},
		HomepageTimeout: cfg.Browser.HomepageTimeout.Std(),
		ArticleTimeout:  cfg.Browser.ArticleTimeout.Std(),
		ProfileTimeout:  cfg.Browser.ProfileTimeout.Std(),
		Workers:         cfg.Capture.Workers,
		Keywords:        cfg.Capture.Keywords,
		Logger:          a.logger,
	}

	var googleOpts []option.ClientOption
	if cfg.NeedsGoogle() {
		provider, err := a.credentialProvider()
		if err != nil {
			return capture.ServiceConfig{}, err
		}
		if googleOpts, err = provider.ClientOptions(ctx); err != nil {
			return capture.ServiceConfig{}, fmt.Errorf("failed to obtain Google credentials: %w", err)
		}
	}

	switch cfg.Archive.Mode {
	case config.ArchiveDrive:
		drive, err := archive.NewDriveStore(ctx, a.logger, googleOpts...)
		if err != nil {
			return capture.ServiceConfig{}, err
		}
		session.Archive = drive
	case config.ArchiveDir:
		dir, err := archive.NewDirStore(cfg.Archive.Dir)
		if err != nil {
			return capture.ServiceConfig{}, err
		}
		session.Archive = dir
	}

	var sinks sink.Multi
	if cfg.Google.Sheets {
		sheets, err := sink.NewSheetsSink(ctx, cfg.Google.SpreadsheetID, cfg.Google.SheetName, a.logger, googleOpts...)
		if err != nil {
			return capture.ServiceConfig{}, err
		}
		sinks = append(sinks, sheets)
	}
	if cfg.Output.CSVFile != "" {
		csvSink, err := sink.NewCSVSink(cfg.Output.CSVFile)
		if err != nil {
			return capture.ServiceConfig{}, err
		}
		sinks = append(sinks, csvSink)
	}
	switch len(sinks) {
	case 0:
	case 1:
		session.Sink = sinks[0]
	default:
		session.Sink = sinks
	}

	ledger, err := a.openLedger()
	if err != nil {
		return capture.ServiceConfig{}, err
	}
	if ledger != nil {
		session.Ledger = ledger
	}

	return capture.ServiceConfig{
		Sites:    adapters,
		Session:  session,
		Folders:  cfg.Archive.Folders,
		Interval: cfg.Capture.Interval.Std(),
	}, nil
}
