// Package sites holds the per-site adapters that parametrize the capture
// pipeline: link pattern, exclusions, field chains, media strategies,
// disclosure sources, contact rules and page preparation hooks.
package sites

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
	"github.com/pevans/newscapture/render"
)

// ErrUnknownSite is returned by Lookup for names with no adapter.
var ErrUnknownSite = errors.New("unknown site")

// Adapter is the set of capabilities the orchestrator needs from a site.
type Adapter interface {
	Name() string
	Homepage() string
	LinkPattern() *regexp.Regexp
	Exclusions() []string
	// FeedURL names an RSS/Atom feed whose links supplement the homepage.
	// Empty means none.
	FeedURL() string
	Fields() extract.FieldSet
	Media() []media.Strategy
	Normalizer() media.Normalizer
	Disclosure() disclosure.Sources
	Contacts() contact.Rules
	// PrepareHomepage runs after the homepage loads and before links are
	// collected.
	PrepareHomepage(ctx context.Context, p render.Page) error
	// PrepareArticle runs after an article loads and before extraction.
	PrepareArticle(ctx context.Context, p render.Page) error
}

// Site is a table-driven Adapter with no-op preparation hooks. Site
// variants embed it and override the hooks they need.
type Site struct {
	SiteName          string
	HomepageURL       string
	Pattern           *regexp.Regexp
	Excluded          []string
	Feed              string
	FieldSet          extract.FieldSet
	MediaStrategies   []media.Strategy
	MediaNormalizer   media.Normalizer
	DisclosureSources disclosure.Sources
	ContactRules      contact.Rules
}

func (s *Site) Name() string                   { return s.SiteName }
func (s *Site) Homepage() string               { return s.HomepageURL }
func (s *Site) LinkPattern() *regexp.Regexp    { return s.Pattern }
func (s *Site) Exclusions() []string           { return s.Excluded }
func (s *Site) FeedURL() string                { return s.Feed }
func (s *Site) Fields() extract.FieldSet       { return s.FieldSet }
func (s *Site) Media() []media.Strategy        { return s.MediaStrategies }
func (s *Site) Normalizer() media.Normalizer   { return s.MediaNormalizer }
func (s *Site) Disclosure() disclosure.Sources { return s.DisclosureSources }
func (s *Site) Contacts() contact.Rules        { return s.ContactRules }

func (s *Site) PrepareHomepage(context.Context, render.Page) error { return nil }
func (s *Site) PrepareArticle(context.Context, render.Page) error  { return nil }

var registry = map[string]func() Adapter{
	"cbc":        func() Adapter { return NewCBC() },
	"globalnews": func() Adapter { return NewGlobalNews() },
	"lapresse":   func() Adapter { return NewLaPresse() },
}

// Names lists the supported sites in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh adapter for name.
func Lookup(name string) (Adapter, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, name)
	}
	return build(), nil
}

// WithOverrides appends extra exclusions to a and, when feedURL is set,
// replaces its feed.
func WithOverrides(a Adapter, exclude []string, feedURL string) Adapter {
	if len(exclude) == 0 && feedURL == "" {
		return a
	}
	return &overridden{Adapter: a, extra: exclude, feed: feedURL}
}

type overridden struct {
	Adapter
	extra []string
	feed  string
}

func (o *overridden) Exclusions() []string {
	base := o.Adapter.Exclusions()
	out := make([]string, 0, len(base)+len(o.extra))
	out = append(out, base...)
	return append(out, o.extra...)
}

func (o *overridden) FeedURL() string {
	if o.feed != "" {
		return o.feed
	}
	return o.Adapter.FeedURL()
}
