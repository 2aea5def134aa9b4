package media

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: build a harvest page from markup
func newPage(t *testing.T, html string) Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	base, err := url.Parse("https://news.example.com/story/1")
	require.NoError(t, err)
	return Page{Doc: doc, Raw: html, Base: base}
}

func urlsOf(h Harvester, p Page) []string {
	var out []string
	for _, l := range h.Harvest(p) {
		out = append(out, l.URL)
	}
	return out
}

// TestHarvest_UnionSortedDeduped verifies strategies merge into one sorted set
func TestHarvest_UnionSortedDeduped(t *testing.T) {
	p := newPage(t, `
<video src="https://example.ca/video/embed/12345#t=30"></video>
<audio><source src="/audio/clip.mp3"></audio>
<iframe src="https://www.youtube.com/embed/abc?autoplay=1"></iframe>
<a href="https://example.ca/video/embed/12345?x=1">watch</a>`)

	h := Harvester{
		Strategies: []Strategy{
			MediaElements(),
			ContainsLinks("iframes", "iframe", "src", "youtube.com/embed/"),
			PrefixLinks("anchors", "a", "href", "https://example.ca/video/"),
		},
		Normalizer: DefaultNormalizer(),
	}

	assert.Equal(t, []string{
		"https://example.ca/video/embed/12345",
		"https://news.example.com/audio/clip.mp3",
		"https://www.youtube.com/embed/abc",
	}, urlsOf(h, p))
}

// TestHarvest_FailingStrategyIsolated verifies a failing or panicking
// strategy does not lose the results of the others
func TestHarvest_FailingStrategyIsolated(t *testing.T) {
	p := newPage(t, `<video src="https://cdn.example.com/a.mp4"></video>`)

	h := Harvester{
		Strategies: []Strategy{
			{Name: "panics", Harvest: func(Page) ([]string, error) { panic("bad markup") }},
			{Name: "errors", Harvest: func(Page) ([]string, error) {
				return []string{"https://cdn.example.com/partial.mp3"}, errors.New("malformed json")
			}},
			MediaElements(),
		},
		Normalizer: DefaultNormalizer(),
	}

	assert.Equal(t, []string{
		"https://cdn.example.com/a.mp4",
		"https://cdn.example.com/partial.mp3",
	}, urlsOf(h, p))
}

// TestHarvest_Empty verifies a page without media yields an empty slice
func TestHarvest_Empty(t *testing.T) {
	h := Harvester{Strategies: []Strategy{MediaElements(), JSONLD()}, Normalizer: DefaultNormalizer()}

	links := h.Harvest(newPage(t, `<p>text</p>`))

	assert.NotNil(t, links)
	assert.Empty(t, links)
}

// TestJSONLD verifies video and audio objects are read, malformed blocks
// skipped
func TestJSONLD(t *testing.T) {
	p := newPage(t, `
<script type="application/ld+json">{"@type":"NewsArticle","video":{"embedUrl":"https://globalnews.ca/video/embed/55/","contentUrl":"https://cdn.example.com/v.mp4"},"audio":[{"contentUrl":"https://cdn.example.com/a.mp3"}]}</script>
<script type="application/ld+json">{not json</script>
<script type="application/ld+json">{"@graph":[{"video":[{"embedUrl":"https://www.youtube.com/embed/q1?si=2"}]}]}</script>`)

	urls, err := JSONLD().Harvest(p)

	assert.Error(t, err, "malformed block should be reported")
	assert.ElementsMatch(t, []string{
		"https://globalnews.ca/video/embed/55/",
		"https://cdn.example.com/v.mp4",
		"https://cdn.example.com/a.mp3",
		"https://www.youtube.com/embed/q1?si=2",
	}, urls)
}

// TestInitialStateStrategy verifies player URLs are read from embedded state
func TestInitialStateStrategy(t *testing.T) {
	p := newPage(t, `<script>window.__INITIAL_STATE__ = {"detail":{"content":{"media":"https://www.cbc.ca/player/play/video/9.1","title":"x"},"related":"https://www.cbc.ca/player/play/1.2345"}};</script>`)

	s := InitialState("https://www.cbc.ca/player/play/", regexp.MustCompile(`https://www\.cbc\.ca/player/play/[0-9.]+`))
	urls, err := s.Harvest(p)

	require.NoError(t, err)
	assert.Contains(t, urls, "https://www.cbc.ca/player/play/video/9.1")
	assert.Contains(t, urls, "https://www.cbc.ca/player/play/1.2345")
}

// TestEncodings verifies HLS sources are read from encoded attributes
func TestEncodings(t *testing.T) {
	p := newPage(t, `<video data-video-encodings='{"application/x-mpegURL":{"src":"https://cdn.lapresse.ca/v/master.m3u8"}}'></video>
<video data-video-encodings='broken'></video>`)

	urls, err := Encodings("encodings", "video[data-video-encodings]", "data-video-encodings", "application/x-mpegURL").Harvest(p)

	assert.Error(t, err)
	assert.Equal(t, []string{"https://cdn.lapresse.ca/v/master.m3u8"}, urls)
}

// TestRawScan verifies the catch-all regex scan
func TestRawScan(t *testing.T) {
	p := newPage(t, `<div data-x="https://globalnews.ca/player/play/audio/1.5"></div>`)

	urls, err := RawScan(regexp.MustCompile(`https://globalnews\.ca/player/play/audio/[0-9.]+`)).Harvest(p)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://globalnews.ca/player/play/audio/1.5"}, urls)
}

// TestResolve verifies relative and inline URLs
func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://news.example.com/a/b")

	assert.Equal(t, "https://news.example.com/c.mp3", resolve(base, "/c.mp3"))
	assert.Equal(t, "https://cdn.example.com/x.mp4", resolve(base, "https://cdn.example.com/x.mp4"))
	assert.Equal(t, "", resolve(base, "blob:https://news.example.com/123"))
	assert.Equal(t, "", resolve(nil, "/c.mp3"))
}
