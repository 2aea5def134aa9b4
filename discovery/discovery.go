// Package discovery collects candidate article URLs from a rendered
// homepage and, optionally, a site's syndication feed.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// CandidateURL is an absolute, fragment-free URL matching a site's article
// pattern.
type CandidateURL string

// Links returns every anchor target on the homepage that matches pattern
// and is not excluded, in first-seen order with duplicates removed.
// Relative hrefs are resolved against origin and fragments are dropped
// before matching.
func Links(doc *goquery.Document, origin *url.URL, pattern *regexp.Regexp, exclude []string) []CandidateURL {
	if doc == nil || pattern == nil {
		return []CandidateURL{}
	}

	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[strings.TrimSpace(e)] = true
	}

	seen := make(map[string]bool)
	links := []CandidateURL{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := Resolve(origin, href)
		if !ok || seen[abs] {
			return
		}
		seen[abs] = true
		if excluded[abs] || !pattern.MatchString(abs) {
			return
		}
		links = append(links, CandidateURL(abs))
	})
	return links
}

// Resolve makes href absolute against origin and strips its fragment. Only
// http and https results are accepted.
func Resolve(origin *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if origin == nil {
			return "", false
		}
		u = origin.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

// Merge appends extra candidates to base, skipping ones already present.
func Merge(base []CandidateURL, extra ...[]CandidateURL) []CandidateURL {
	seen := make(map[CandidateURL]bool, len(base))
	out := make([]CandidateURL, 0, len(base))
	for _, c := range base {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, list := range extra {
		for _, c := range list {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// FeedLinks fetches and parses an RSS or Atom feed and returns the item
// links that pass the same resolution, pattern and exclusion rules as
// homepage anchors. The gofeed parser detects the feed format.
func FeedLinks(ctx context.Context, feedURL string, pattern *regexp.Regexp, exclude []string, timeout time.Duration) ([]CandidateURL, error) {
	origin, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fp := gofeed.NewParser()
	fp.UserAgent = "newscapture/1.0 (news capture with feed discovery)"
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[strings.TrimSpace(e)] = true
	}

	seen := make(map[string]bool)
	links := []CandidateURL{}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		abs, ok := Resolve(origin, item.Link)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		if excluded[abs] || pattern == nil || !pattern.MatchString(abs) {
			continue
		}
		links = append(links, CandidateURL(abs))
	}
	return links, nil
}
