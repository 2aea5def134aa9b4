package media

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/record"
)

// Page is the input shared by every strategy: the parsed DOM and the raw
// rendered markup it was parsed from.
type Page struct {
	Doc  *goquery.Document
	Raw  string
	Base *url.URL
}

// Strategy is one independent way of finding media URLs on a page.
type Strategy struct {
	Name    string
	Harvest func(p Page) ([]string, error)
}

// Harvester unions the output of its strategies through one normalizer.
type Harvester struct {
	Strategies []Strategy
	Normalizer Normalizer
	Logger     *slog.Logger
}

// Harvest runs every strategy and returns the lexicographically sorted,
// de-duplicated canonical links. A strategy that errors or panics contributes
// nothing and does not affect the others.
func (h Harvester) Harvest(p Page) []record.MediaLink {
	log := h.Logger
	if log == nil {
		log = slog.Default()
	}

	seen := make(map[string]struct{})
	for _, s := range h.Strategies {
		urls, err := run(s, p)
		if err != nil {
			log.Debug("media: strategy failed", "strategy", s.Name, "error", err)
		}
		for _, raw := range urls {
			canonical := h.Normalizer.Normalize(resolve(p.Base, raw))
			if canonical == "" {
				continue
			}
			seen[canonical] = struct{}{}
		}
	}

	links := make([]record.MediaLink, 0, len(seen))
	for u := range seen {
		links = append(links, record.MediaLink{URL: u, Kind: Kind(u)})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links
}

func run(s Strategy, p Page) (urls []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			urls = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	if s.Harvest == nil || p.Doc == nil {
		return nil, nil
	}
	return s.Harvest(p)
}

// resolve makes raw absolute against base. Inline data and blob URLs are
// dropped.
func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") ||
		strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return raw
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
