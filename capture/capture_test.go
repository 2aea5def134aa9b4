package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pevans/newscapture/archive"
	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/discovery"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/render"
	"github.com/pevans/newscapture/render/rendertest"
	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	homeURL    = "https://news.example.com/"
	firstURL   = "https://news.example.com/news/first-story"
	secondURL  = "https://news.example.com/news/second-story"
	liveURL    = "https://news.example.com/news/live-updates"
	profileURL = "https://news.example.com/people/jane-doe"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testSite() *sites.Site {
	return &sites.Site{
		SiteName:    "example",
		HomepageURL: homeURL,
		Pattern:     regexp.MustCompile(`^https://news\.example\.com/news/[a-z0-9-]+$`),
		Excluded:    []string{liveURL},
		FieldSet: extract.FieldSet{
			Title:       extract.NewChain("title", extract.Text("h1")),
			Author:      extract.NewChain("author", extract.Text(".byline .name")),
			Affiliation: extract.NewChain("affiliation", extract.Const("Example News")),
			Date:        extract.NewChain("date", extract.Attr("time", "datetime")),
		},
		MediaStrategies:   []media.Strategy{media.MediaElements()},
		MediaNormalizer:   media.DefaultNormalizer(),
		DisclosureSources: disclosure.DefaultSources(),
		ContactRules: contact.Rules{
			ProfileSources: []contact.ProfileSource{{Selector: ".byline a.profile", Attr: "href"}},
		},
	}
}

func homepage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, l)
	}
	b.WriteString(`<a href="/about">About</a></body></html>`)
	return b.String()
}

func article(title, body string) string {
	return fmt.Sprintf(`<html><body><article>
		<h1>%s</h1>
		<div class="byline"><a class="profile" href="/people/jane-doe"><span class="name">Jane Doe</span></a></div>
		<time datetime="2026-03-13">March 13</time>
		<p>%s</p>
		<video src="https://cdn.example.com/clip.mp4#t=5"></video>
	</article></body></html>`, title, body)
}

const profilePage = `<html><body>
	<p>Reach Jane at jane.doe@example.com</p>
	<a href="https://twitter.com/janedoe">Twitter</a>
</body></html>`

// Test helper: a fake browser with the homepage, two articles and a profile
func createTestBrowser() *rendertest.Browser {
	return rendertest.New().
		AddPage(homeURL, homepage("/news/first-story", secondURL, "/news/live-updates", "/news/first-story")).
		AddPage(firstURL, article("First Story", "Plain reporting.")).
		AddPage(secondURL, article("Second Story", "Our data team utilized AI tools.")).
		AddPage(liveURL, article("Live", "Live updates.")).
		AddPage(profileURL, profilePage)
}

type memSink struct {
	mu      sync.Mutex
	header  []string
	rows    [][]string
	failErr error
}

func (m *memSink) EnsureHeader(ctx context.Context, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = columns
	return nil
}

func (m *memSink) Append(ctx context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

// flakyStore fails uploads whose name contains failOn.
type flakyStore struct {
	failOn string
}

func (f *flakyStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	return "folder-" + name, nil
}

func (f *flakyStore) UploadFile(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error) {
	if f.failOn != "" && strings.Contains(name, f.failOn) {
		return "", errors.New("quota exceeded")
	}
	return "file-" + name, nil
}

func testConfig(b *rendertest.Browser) Config {
	return Config{
		Launch: func(ctx context.Context) (render.Browser, error) { return b, nil },
		Now:    func() time.Time { return testNow },
	}
}

// TestSession_ProcessesNonExcludedLinks verifies that of three candidate
// links, the excluded one is never processed
func TestSession_ProcessesNonExcludedLinks(t *testing.T) {
	b := createTestBrowser()
	root := t.TempDir()
	dir, err := archive.NewDirStore(root)
	require.NoError(t, err)
	sink := &memSink{}

	cfg := testConfig(b)
	cfg.Archive = dir
	cfg.ParentFolderID = "example"
	cfg.Sink = sink

	session := NewSession(testSite(), cfg)
	assert.Equal(t, StateIdle, session.State())

	report, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSessionComplete, session.State())
	assert.Equal(t, 2, report.Discovered())
	records := report.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "First Story", records[0].Title)
	assert.Equal(t, "Second Story", records[1].Title)
	assert.Zero(t, b.Visits(liveURL))
	assert.Empty(t, report.Skipped())
	assert.Zero(t, report.NotArchived())

	// Pages and browser are released
	assert.Zero(t, b.OpenPages())
	assert.True(t, b.Closed())

	// Sink got the header and one row per record
	assert.Equal(t, record.Columns, sink.header)
	require.Len(t, sink.rows, 2)
	assert.Equal(t, records[0].Row(), sink.rows[0])

	// Snapshots land in the dated folder
	folder := filepath.Join(root, "example", "2026-03-14 Capture")
	assert.Equal(t, filepath.Join("example", "2026-03-14 Capture"), report.FolderID)
	for _, name := range []string{
		"example_homepage_2026-03-14.pdf",
		"example_First_Story_2026-03-14.pdf",
		"example_Second_Story_2026-03-14.pdf",
	} {
		_, err := os.Stat(filepath.Join(folder, name))
		assert.NoError(t, err, name)
	}
	assert.NotEmpty(t, report.HomepageSnapshotID)
}

// TestSession_UnreadableSnapshotArchivedAsPrinted verifies a PDF that does
// not validate is uploaded byte for byte instead of being dropped
func TestSession_UnreadableSnapshotArchivedAsPrinted(t *testing.T) {
	b := createTestBrowser()
	root := t.TempDir()
	dir, err := archive.NewDirStore(root)
	require.NoError(t, err)

	cfg := testConfig(b)
	cfg.Archive = dir
	cfg.ParentFolderID = "example"

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.NotArchived())

	data, err := os.ReadFile(filepath.Join(root, "example", "2026-03-14 Capture", "example_First_Story_2026-03-14.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake snapshot of "+firstURL, string(data))
}

// TestSession_RecordContents verifies the assembled fields of one article
func TestSession_RecordContents(t *testing.T) {
	b := createTestBrowser()

	report, err := NewSession(testSite(), testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 2)
	rec := records[1]

	assert.Equal(t, []string{"Jane Doe"}, rec.Authors)
	assert.Equal(t, "Example News", rec.Affiliation)
	assert.Equal(t, "2026-03-13", rec.Date)
	assert.Equal(t, secondURL, rec.SourceURL)
	assert.Equal(t, record.NoAdditionalAffiliation, rec.AdditionalAffiliations)
	assert.Equal(t, []record.MediaLink{{URL: "https://cdn.example.com/clip.mp4", Kind: record.MediaVideo}}, rec.Media)
	assert.Equal(t, record.DisclosureResult{Matched: true, Keyword: "AI tools"}, rec.Disclosure)

	var values []string
	for _, c := range rec.Contacts {
		values = append(values, c.Value)
	}
	assert.Contains(t, values, "mailto:jane.doe@example.com")
	assert.Contains(t, values, "https://twitter.com/janedoe")

	// Without an archive every record is captured but not archived
	assert.Equal(t, 2, report.NotArchived())
	assert.Equal(t, "archiving disabled", report.Outcomes[0].Reason)
}

// TestSession_SkipsNavigationFailure verifies a timed-out article yields no
// record and the session continues with the next one
func TestSession_SkipsNavigationFailure(t *testing.T) {
	b := createTestBrowser().Fail(firstURL, context.DeadlineExceeded)

	report, err := NewSession(testSite(), testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, discovery.CandidateURL(firstURL), skipped[0].URL)
	assert.Contains(t, skipped[0].Reason, "deadline exceeded")

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Second Story", records[0].Title)
	assert.Equal(t, report.Discovered()-len(skipped), len(records))
	assert.Zero(t, b.OpenPages())
}

// TestSession_ArchiveFailureIsArticleScoped verifies a failed upload keeps
// the record and the run going
func TestSession_ArchiveFailureIsArticleScoped(t *testing.T) {
	b := createTestBrowser()
	cfg := testConfig(b)
	cfg.Archive = &flakyStore{failOn: "First_Story"}

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	first, second := report.Outcomes[0], report.Outcomes[1]

	assert.Equal(t, StateAssembled, first.State)
	assert.NotNil(t, first.Record)
	assert.False(t, first.Archived())
	assert.Contains(t, first.Reason, "quota exceeded")

	assert.Equal(t, StateArchived, second.State)
	assert.Equal(t, "file-example_Second_Story_2026-03-14.pdf", second.SnapshotID)
	assert.Equal(t, 1, report.NotArchived())
	assert.Len(t, report.Records(), 2)
}

// TestSession_PDFFailureIsArticleScoped verifies a page that cannot be
// rendered to PDF still yields its record
func TestSession_PDFFailureIsArticleScoped(t *testing.T) {
	b := createTestBrowser().FailPDF(secondURL, errors.New("printing failed"))
	cfg := testConfig(b)
	cfg.Archive = &flakyStore{}

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Records(), 2)
	assert.Equal(t, 1, report.NotArchived())
	assert.Contains(t, report.Outcomes[1].Reason, "printing failed")
}

// TestSession_HomepageFailure verifies ErrDiscovery and cleanup when the
// homepage cannot load
func TestSession_HomepageFailure(t *testing.T) {
	b := createTestBrowser().Fail(homeURL, errors.New("connection refused"))
	sink := &memSink{}
	ledger := createTestLedger(t)
	cfg := testConfig(b)
	cfg.Sink = sink
	cfg.Ledger = ledger

	session := NewSession(testSite(), cfg)
	report, err := session.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.True(t, render.IsNavigationFailure(err))

	require.NotNil(t, report)
	assert.Zero(t, report.Discovered())
	assert.Zero(t, b.Visits(firstURL))
	assert.Zero(t, b.OpenPages())
	assert.True(t, b.Closed())
	assert.Nil(t, sink.header)
	assert.NotEqual(t, StateSessionComplete, session.State())

	run, err := ledger.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	require.NotNil(t, run.LastError)
	assert.Contains(t, *run.LastError, "connection refused")
}

// TestSession_LaunchFailureRecorded verifies a browser that never starts
// leaves a failed run in the ledger
func TestSession_LaunchFailureRecorded(t *testing.T) {
	ledger := createTestLedger(t)
	cfg := testConfig(createTestBrowser())
	cfg.Ledger = ledger
	cfg.Launch = func(ctx context.Context) (render.Browser, error) {
		return nil, errors.New("chrome not found")
	}

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.Error(t, err)

	run, err := ledger.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	require.NotNil(t, run.LastError)
	assert.Contains(t, *run.LastError, "chrome not found")
}

// TestSession_WorkersPreserveOrder verifies concurrent processing emits
// records in discovery order and releases every page
func TestSession_WorkersPreserveOrder(t *testing.T) {
	b := rendertest.New()
	var links []string
	for i := 0; i < 8; i++ {
		u := fmt.Sprintf("https://news.example.com/news/story-%d", i)
		links = append(links, u)
		b.AddPage(u, article(fmt.Sprintf("Story %d", i), "Text."))
	}
	b.AddPage(homeURL, homepage(links...))
	b.Fail(links[3], errors.New("net::ERR_NAME_NOT_RESOLVED"))

	cfg := testConfig(b)
	cfg.Workers = 3

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 8)
	for i, o := range report.Outcomes {
		assert.Equal(t, discovery.CandidateURL(links[i]), o.URL)
	}
	records := report.Records()
	require.Len(t, records, 7)
	assert.Equal(t, "Story 0", records[0].Title)
	assert.Equal(t, "Story 4", records[3].Title)
	assert.Equal(t, "Story 7", records[6].Title)
	assert.Zero(t, b.OpenPages())
}

// TestSession_ProfileVisitedOnce verifies the profile hop happens once per
// article even when the byline links it twice
func TestSession_ProfileVisitedOnce(t *testing.T) {
	doubleByline := `<html><body><article><h1>Two Bylines</h1>
		<div class="byline"><a class="profile" href="/people/jane-doe"><span class="name">Jane Doe</span></a></div>
		<div class="byline"><a class="profile" href="https://news.example.com/people/jane-doe">Jane</a></div>
	</article></body></html>`
	b := rendertest.New().
		AddPage(homeURL, homepage(firstURL)).
		AddPage(firstURL, doubleByline).
		AddPage(profileURL, profilePage)

	report, err := NewSession(testSite(), testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Records(), 1)
	assert.Equal(t, 1, b.Visits(profileURL))
	assert.Zero(t, b.OpenPages())
}

// TestSession_ProfileFailureIsAbsorbed verifies a broken profile page only
// drops the tokens it would have given
func TestSession_ProfileFailureIsAbsorbed(t *testing.T) {
	b := createTestBrowser().Fail(profileURL, context.DeadlineExceeded)

	report, err := NewSession(testSite(), testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 2)
	assert.Empty(t, records[0].Contacts)
	assert.Equal(t, record.NoContact, records[0].ContactCell())
}

// TestSession_Transitions verifies the session and article state sequence
func TestSession_Transitions(t *testing.T) {
	b := rendertest.New().
		AddPage(homeURL, homepage(firstURL, secondURL)).
		AddPage(firstURL, article("First Story", "Text.")).
		Fail(secondURL, context.DeadlineExceeded)

	var mu sync.Mutex
	var sessionStates []State
	articleStates := map[string][]State{}

	cfg := testConfig(b)
	cfg.Archive = &flakyStore{}
	cfg.OnTransition = func(article string, st State) {
		mu.Lock()
		defer mu.Unlock()
		if article == "" {
			sessionStates = append(sessionStates, st)
			return
		}
		articleStates[article] = append(articleStates[article], st)
	}

	_, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []State{StateSessionStarted, StateDiscoveringLinks, StateSessionComplete}, sessionStates)
	assert.Equal(t, []State{StateNavigating, StateExtracting, StateAssembled, StateArchived}, articleStates[firstURL])
	assert.Equal(t, []State{StateNavigating, StateSkipped}, articleStates[secondURL])
}

// TestSession_PrepareFailureIsAbsorbed verifies hook errors do not skip
// articles
func TestSession_PrepareFailureIsAbsorbed(t *testing.T) {
	b := createTestBrowser()
	site := &failingPrepSite{Site: testSite()}

	report, err := NewSession(site, testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Records(), 2)
	assert.Equal(t, 1, site.homepageCalls)
}

type failingPrepSite struct {
	*sites.Site
	homepageCalls int
}

func (f *failingPrepSite) PrepareHomepage(ctx context.Context, p render.Page) error {
	f.homepageCalls++
	return errors.New("scroll failed")
}

func (f *failingPrepSite) PrepareArticle(ctx context.Context, p render.Page) error {
	return errors.New("player missing")
}

// TestSession_FeedSupplementsHomepage verifies feed links are appended
// after homepage links through the same filters
func TestSession_FeedSupplementsHomepage(t *testing.T) {
	feedOnly := "https://news.example.com/news/feed-only"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Example</title>
			<item><title>A</title><link>%s</link></item>
			<item><title>B</title><link>%s</link></item>
			<item><title>C</title><link>%s</link></item>
		</channel></rss>`, firstURL, feedOnly, liveURL)
	}))
	defer srv.Close()

	b := createTestBrowser().AddPage(feedOnly, article("Feed Only", "Text."))
	site := testSite()
	site.Feed = srv.URL

	report, err := NewSession(site, testConfig(b)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, discovery.CandidateURL(feedOnly), report.Outcomes[2].URL)
	assert.Zero(t, b.Visits(liveURL))
}

// TestSession_FeedFailureIsAbsorbed verifies an unreachable feed leaves
// the homepage links
func TestSession_FeedFailureIsAbsorbed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	site := testSite()
	site.Feed = srv.URL

	report, err := NewSession(site, testConfig(createTestBrowser())).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Discovered())
}

// Test helper: create a ledger in a temp dir
func createTestLedger(t *testing.T) *store.RunStore {
	ledger, err := store.NewRunStore(filepath.Join(t.TempDir(), "test.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

// TestSession_Ledger verifies the run and its records are stored
func TestSession_Ledger(t *testing.T) {
	b := createTestBrowser().Fail(firstURL, context.DeadlineExceeded)
	ledger := createTestLedger(t)
	cfg := testConfig(b)
	cfg.Ledger = ledger

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.NoError(t, err)

	run, err := ledger.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, 2, run.Discovered)
	assert.Equal(t, 1, run.Assembled)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.NotArchived)

	stored, err := ledger.ListRecords(report.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].Position)
	assert.Equal(t, "Second Story", stored[0].Record.Title)
}

// TestSession_LedgerRejectsConcurrentRun verifies a second run for the same
// site does not start while the first is in progress
func TestSession_LedgerRejectsConcurrentRun(t *testing.T) {
	ledger := createTestLedger(t)
	_, err := ledger.BeginRun("example", testNow.Add(-time.Minute))
	require.NoError(t, err)

	launched := false
	cfg := testConfig(createTestBrowser())
	cfg.Ledger = ledger
	cfg.Launch = func(ctx context.Context) (render.Browser, error) {
		launched = true
		return rendertest.New(), nil
	}

	_, err = NewSession(testSite(), cfg).Run(context.Background())
	assert.ErrorIs(t, err, store.ErrRunInProgress)
	assert.False(t, launched)
}

// TestSession_SinkFailure verifies a sink error fails the run and is
// recorded in the ledger
func TestSession_SinkFailure(t *testing.T) {
	ledger := createTestLedger(t)
	cfg := testConfig(createTestBrowser())
	cfg.Ledger = ledger
	cfg.Sink = &memSink{failErr: errors.New("sheet is protected")}

	report, err := NewSession(testSite(), cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet is protected")

	run, err := ledger.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Equal(t, 2, run.Assembled)
	require.NotNil(t, run.LastError)
	assert.Contains(t, *run.LastError, "sheet is protected")
}

// TestSession_CancelledContext verifies articles are skipped once the
// context is done
func TestSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := createTestBrowser()
	_, err := NewSession(testSite(), testConfig(b)).Run(ctx)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.Zero(t, b.OpenPages())
}

// TestAssembler_SentinelsOnEmptyPage verifies every field falls back to
// its sentinel
func TestAssembler_SentinelsOnEmptyPage(t *testing.T) {
	site := testSite()
	site.FieldSet.Affiliation = extract.NewChain("affiliation", extract.Text(".org"))
	asm := NewAssembler(site, nil, nil, nil)

	doc, _, err := render.Snapshot(context.Background(), mustPage(t, "<html><body></body></html>"))
	require.NoError(t, err)

	rec := asm.Assemble(context.Background(), doc, "", "")
	assert.Equal(t, []string{
		record.NoTitle, record.NoAuthor, record.NoContact, record.NoAffiliation,
		record.Unknown, record.NoDate, record.NoAdditionalAffiliation, record.NoMedia, "False",
	}, rec.Row())
	for _, cell := range rec.Row() {
		assert.NotEmpty(t, cell)
	}
}

// TestAssembler_CustomKeywords verifies the keyword override
func TestAssembler_CustomKeywords(t *testing.T) {
	asm := NewAssembler(testSite(), []string{"generative"}, nil, nil)

	doc, raw, err := render.Snapshot(context.Background(), mustPage(t, article("T", "A generative system wrote this with ChatGPT.")))
	require.NoError(t, err)

	rec := asm.Assemble(context.Background(), doc, raw, firstURL)
	assert.Equal(t, record.DisclosureResult{Matched: true, Keyword: "generative"}, rec.Disclosure)
}

func mustPage(t *testing.T, html string) render.Page {
	b := rendertest.New().AddPage("https://fixture.test/", html)
	p, err := b.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Navigate(context.Background(), "https://fixture.test/", time.Second))
	t.Cleanup(func() { p.Close() })
	return p
}

// TestSnapshotTitle verifies untitled articles are named after their URL
func TestSnapshotTitle(t *testing.T) {
	assert.Equal(t, "First", snapshotTitle(record.ArticleRecord{Title: "First"}))
	assert.Equal(t, "first-story", snapshotTitle(record.ArticleRecord{Title: record.NoTitle, SourceURL: firstURL}))
	assert.Equal(t, "article", snapshotTitle(record.ArticleRecord{Title: record.NoTitle, SourceURL: homeURL}))
}
