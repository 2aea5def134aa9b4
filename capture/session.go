package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newscapture/archive"
	"github.com/pevans/newscapture/discovery"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/render"
	"github.com/pevans/newscapture/sink"
	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
)

// ErrDiscovery is returned when the homepage cannot be loaded or read. No
// article is processed in that case.
var ErrDiscovery = errors.New("link discovery failed")

// Default timeouts.
const (
	DefaultHomepageTimeout = 120 * time.Second
	DefaultArticleTimeout  = 60 * time.Second
	DefaultProfileTimeout  = 60 * time.Second
	DefaultFeedTimeout     = 30 * time.Second
)

// Ledger records runs and their records. *store.RunStore implements it.
type Ledger interface {
	BeginRun(site string, now time.Time) (*store.Run, error)
	FinishRun(runID uuid.UUID, summary store.Summary, runErr error, now time.Time) error
	AddRecord(runID uuid.UUID, position int, rec record.ArticleRecord, archived bool, snapshotID string, now time.Time) error
}

// Config holds everything a session needs besides the site itself.
type Config struct {
	// Launch starts the rendering engine. The session closes the browser
	// when it ends.
	Launch func(ctx context.Context) (render.Browser, error)

	// Archive stores snapshots under ParentFolderID. Nil disables archiving.
	Archive        archive.Store
	ParentFolderID string

	// Sink receives the header row and the assembled rows. Optional.
	Sink sink.Sink

	// Ledger guards against concurrent runs and keeps a local copy of the
	// records. Optional.
	Ledger Ledger

	HomepageTimeout time.Duration
	ArticleTimeout  time.Duration
	ProfileTimeout  time.Duration
	FeedTimeout     time.Duration

	// Workers bounds how many articles are processed at once. 1 processes
	// them strictly one after another.
	Workers int

	// Keywords overrides the disclosure keyword list.
	Keywords []string

	Logger *slog.Logger
	Now    func() time.Time

	// OnTransition observes state changes. article is empty for
	// session-level states. It is called from worker goroutines when
	// Workers > 1.
	OnTransition func(article string, st State)
}

// Session is one capture run against one site.
type Session struct {
	site sites.Adapter
	cfg  Config

	mu    sync.Mutex
	state State
}

// NewSession creates an idle session, filling unset config with defaults.
func NewSession(site sites.Adapter, cfg Config) *Session {
	if cfg.HomepageTimeout <= 0 {
		cfg.HomepageTimeout = DefaultHomepageTimeout
	}
	if cfg.ArticleTimeout <= 0 {
		cfg.ArticleTimeout = DefaultArticleTimeout
	}
	if cfg.ProfileTimeout <= 0 {
		cfg.ProfileTimeout = DefaultProfileTimeout
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = DefaultFeedTimeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{site: site, cfg: cfg, state: StateIdle}
}

// State returns the session-level state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.transition("", st)
}

func (s *Session) transition(article string, st State) {
	if s.cfg.OnTransition != nil {
		s.cfg.OnTransition(article, st)
	}
}

// Run executes the session. Article failures never abort it: they are
// reported as skipped outcomes. Run fails when the run cannot start, the
// homepage cannot be read, or the sink rejects the rows.
func (s *Session) Run(ctx context.Context) (report *Report, err error) {
	if s.cfg.Launch == nil {
		return nil, errors.New("no browser configured")
	}

	site := s.site.Name()
	now := s.cfg.Now()
	report = &Report{RunID: uuid.New(), Site: site, StartedAt: now}
	s.setState(StateSessionStarted)

	if s.cfg.Ledger != nil {
		run, beginErr := s.cfg.Ledger.BeginRun(site, now)
		if beginErr != nil {
			return nil, fmt.Errorf("failed to begin run for %s: %w", site, beginErr)
		}
		report.RunID = run.RunID
		// err is the named result, so the ledger sees how the run ended.
		defer func() {
			if ferr := s.cfg.Ledger.FinishRun(report.RunID, report.Summary(), err, s.cfg.Now()); ferr != nil {
				s.cfg.Logger.Error("failed to finish run", "site", site, "run_id", report.RunID, "error", ferr)
			}
		}()
	}
	defer func() { report.FinishedAt = s.cfg.Now() }()

	logger := s.cfg.Logger.With("site", site, "run_id", report.RunID.String())
	logger.Info("capture session started", "homepage", s.site.Homepage())

	browser, err := s.cfg.Launch(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	report.FolderID = s.ensureFolder(ctx, logger, now)

	s.setState(StateDiscoveringLinks)
	links, err := s.discover(ctx, browser, report, logger, now)
	if err != nil {
		logger.Error("capture session failed", "error", err)
		return report, err
	}

	report.Outcomes = s.processAll(ctx, browser, links, report.FolderID, logger, now)
	s.saveRecords(report, logger)

	if err := s.deliver(ctx, report); err != nil {
		logger.Error("capture session failed", "error", err)
		return report, err
	}

	s.setState(StateSessionComplete)
	logger.Info("capture session complete",
		"discovered", report.Discovered(),
		"assembled", len(report.Records()),
		"skipped", len(report.Skipped()),
		"not_archived", report.NotArchived(),
	)
	return report, nil
}

// ensureFolder finds or creates the dated capture folder. An error only
// disables archiving for this session.
func (s *Session) ensureFolder(ctx context.Context, logger *slog.Logger, now time.Time) string {
	if s.cfg.Archive == nil {
		return ""
	}
	id, err := s.cfg.Archive.CreateFolder(ctx, archive.FolderName(now), s.cfg.ParentFolderID)
	if err != nil {
		logger.Warn("capture folder unavailable, snapshots will not be archived", "error", err)
		return ""
	}
	return id
}

// discover loads the homepage, collects candidate links and archives the
// homepage snapshot. The homepage tab is closed before articles start.
func (s *Session) discover(ctx context.Context, browser render.Browser, report *Report, logger *slog.Logger, now time.Time) ([]discovery.CandidateURL, error) {
	homepage := s.site.Homepage()
	origin, err := url.Parse(homepage)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid homepage %q: %w", ErrDiscovery, homepage, err)
	}

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, homepage, s.cfg.HomepageTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	if err := s.site.PrepareHomepage(ctx, page); err != nil {
		logger.Warn("homepage preparation failed", "error", err)
	}

	doc, _, err := render.Snapshot(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	links := discovery.Links(doc, origin, s.site.LinkPattern(), s.site.Exclusions())
	if feed := s.site.FeedURL(); feed != "" {
		extra, err := discovery.FeedLinks(ctx, feed, s.site.LinkPattern(), s.site.Exclusions(), s.cfg.FeedTimeout)
		if err != nil {
			logger.Warn("feed discovery failed", "feed", feed, "error", err)
		} else {
			links = discovery.Merge(links, extra)
		}
	}
	logger.Info("links discovered", "count", len(links))

	if report.FolderID != "" {
		props := archive.Properties{Title: s.site.Name() + " homepage", Subject: homepage, Keywords: s.site.Name()}
		id, err := s.archivePage(ctx, page, archive.HomepageName(s.site.Name(), now), props, report.FolderID, logger)
		if err != nil {
			logger.Warn("homepage not archived", "error", err)
		} else {
			report.HomepageSnapshotID = id
		}
	}
	return links, nil
}

// processAll runs every article and returns outcomes in discovery order.
func (s *Session) processAll(ctx context.Context, browser render.Browser, links []discovery.CandidateURL, folderID string, logger *slog.Logger, now time.Time) []Outcome {
	outcomes := make([]Outcome, len(links))
	loader := render.Loader{Browser: browser, Timeout: s.cfg.ProfileTimeout}
	asm := NewAssembler(s.site, s.cfg.Keywords, loader, logger)

	if s.cfg.Workers <= 1 {
		for i, link := range links {
			outcomes[i] = s.processArticle(ctx, browser, asm, link, folderID, logger, now)
		}
		return outcomes
	}

	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	for i, link := range links {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, link discovery.CandidateURL) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.processArticle(ctx, browser, asm, link, folderID, logger, now)
		}(i, link)
	}
	wg.Wait()
	return outcomes
}

// processArticle runs one article on its own page. The page is closed
// before processArticle returns, whatever the outcome.
func (s *Session) processArticle(ctx context.Context, browser render.Browser, asm *Assembler, link discovery.CandidateURL, folderID string, logger *slog.Logger, now time.Time) Outcome {
	articleURL := string(link)
	out := Outcome{URL: link}
	log := logger.With("url", articleURL)

	if err := ctx.Err(); err != nil {
		return s.skip(out, log, err)
	}

	s.transition(articleURL, StateNavigating)
	page, err := browser.NewPage(ctx)
	if err != nil {
		return s.skip(out, log, fmt.Errorf("failed to open page: %w", err))
	}
	defer page.Close()

	if err := page.Navigate(ctx, articleURL, s.cfg.ArticleTimeout); err != nil {
		return s.skip(out, log, err)
	}
	if err := s.site.PrepareArticle(ctx, page); err != nil {
		log.Debug("article preparation failed", "error", err)
	}

	s.transition(articleURL, StateExtracting)
	doc, raw, err := render.Snapshot(ctx, page)
	if err != nil {
		return s.skip(out, log, err)
	}
	rec := asm.Assemble(ctx, doc, raw, articleURL)
	out.Record = &rec
	out.State = StateAssembled
	s.transition(articleURL, StateAssembled)

	switch {
	case s.cfg.Archive == nil:
		out.Reason = "archiving disabled"
	case folderID == "":
		out.Reason = "capture folder unavailable"
	default:
		name := archive.SnapshotName(s.site.Name(), snapshotTitle(rec), now)
		props := archive.Properties{Title: rec.Title, Subject: articleURL, Keywords: s.site.Name()}
		id, err := s.archivePage(ctx, page, name, props, folderID, log)
		if err != nil {
			out.Reason = "not archived: " + err.Error()
			log.Warn("article captured but not archived", "error", err)
			break
		}
		out.SnapshotID = id
		out.State = StateArchived
		s.transition(articleURL, StateArchived)
	}
	return out
}

func (s *Session) skip(out Outcome, log *slog.Logger, err error) Outcome {
	out.State = StateSkipped
	out.Reason = err.Error()
	if render.IsNavigationFailure(err) {
		log.Warn("skipping article, navigation failed", "error", err)
	} else {
		log.Warn("skipping article", "error", err)
	}
	s.transition(string(out.URL), StateSkipped)
	return out
}

// archivePage renders page to PDF, stamps it and uploads it. A PDF that
// cannot be stamped is uploaded as rendered.
func (s *Session) archivePage(ctx context.Context, page render.Page, name string, props archive.Properties, folderID string, log *slog.Logger) (string, error) {
	pdf, err := page.PDF(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := archive.Validate(pdf); err != nil {
		log.Debug("snapshot failed validation, archiving unstamped", "name", name, "error", err)
	} else if stamped, err := archive.Stamp(pdf, props); err != nil {
		log.Debug("snapshot left unstamped", "name", name, "error", err)
	} else {
		pdf = stamped
	}
	id, err := s.cfg.Archive.UploadFile(ctx, pdf, name, archive.PDFMimeType, folderID)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return id, nil
}

// snapshotTitle names an untitled article after the last segment of its
// URL so it does not collide with the homepage snapshot.
func snapshotTitle(rec record.ArticleRecord) string {
	if rec.Title != record.NoTitle {
		return rec.Title
	}
	if u, err := url.Parse(rec.SourceURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
	}
	return "article"
}

func (s *Session) saveRecords(report *Report, logger *slog.Logger) {
	if s.cfg.Ledger == nil {
		return
	}
	for i, o := range report.Outcomes {
		if o.Record == nil {
			continue
		}
		if err := s.cfg.Ledger.AddRecord(report.RunID, i, *o.Record, o.Archived(), o.SnapshotID, s.cfg.Now()); err != nil {
			logger.Error("failed to store record", "url", string(o.URL), "error", err)
		}
	}
}

// deliver writes the header row and appends the assembled rows.
func (s *Session) deliver(ctx context.Context, report *Report) error {
	if s.cfg.Sink == nil {
		return nil
	}
	if err := s.cfg.Sink.EnsureHeader(ctx, record.Columns); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	rows := report.Rows()
	if len(rows) == 0 {
		return nil
	}
	if err := s.cfg.Sink.Append(ctx, rows); err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	return nil
}
