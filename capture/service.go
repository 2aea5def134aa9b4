package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
)

// DefaultInterval is how often the service revisits every site.
const DefaultInterval = 6 * time.Hour

// ServiceConfig holds configuration for the capture service.
type ServiceConfig struct {
	Sites []sites.Adapter
	// Session is the base config of every session; ParentFolderID is
	// replaced per site from Folders.
	Session Config
	// Folders maps a site name to its archive parent folder.
	Folders map[string]string
	// Interval between rounds of captures.
	Interval time.Duration
}

// Service periodically runs a capture session for every configured site.
// Sites are captured one after another.
type Service struct {
	config   ServiceConfig
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewService creates a new capture service.
func NewService(config ServiceConfig) *Service {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Session.Logger == nil {
		config.Session.Logger = slog.Default()
	}
	return &Service{
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// RunOnce captures every site once and returns the reports of the sessions
// that ran. Errors from individual sites are joined; a site whose previous
// run is still in progress is skipped with a warning.
func (s *Service) RunOnce(ctx context.Context) ([]*Report, error) {
	logger := s.config.Session.Logger
	var reports []*Report
	var errs []error

	for _, site := range s.config.Sites {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		cfg := s.config.Session
		cfg.ParentFolderID = s.config.Folders[site.Name()]
		report, err := NewSession(site, cfg).Run(ctx)
		if report != nil {
			reports = append(reports, report)
		}
		if errors.Is(err, store.ErrRunInProgress) {
			logger.Warn("skipping site, previous run still in progress", "site", site.Name())
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", site.Name(), err))
		}
	}
	return reports, errors.Join(errs...)
}

// Run captures every site immediately, then again on each interval, until
// Stop is called or ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	logger := s.config.Session.Logger
	logger.Info("capture service starting", "sites", len(s.config.Sites), "interval", s.config.Interval.String())
	if _, err := s.RunOnce(ctx); err != nil {
		logger.Error("capture round failed", "error", err)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("capture service stopping (context cancelled)")
			return ctx.Err()
		case <-s.stopChan:
			logger.Info("capture service stopping")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				logger.Error("capture round failed", "error", err)
			}
		}
	}
}

// Stop signals the service to stop after the current round.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}
