// Package contact resolves author contact tokens from an article page and,
// when the byline links to one, the author's profile page.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/record"
)

// Loader renders a secondary page and returns its DOM. Implementations own
// the page handle and release it before returning.
type Loader interface {
	Load(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, pageURL string) (*goquery.Document, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	return f(ctx, pageURL)
}

// ProfileSource locates author profile URLs in a byline.
type ProfileSource struct {
	Selector string
	Attr     string
}

// Rules are the per-site contact scan rules.
type Rules struct {
	// LinkScope selects anchors scanned on the article page. Default "a[href]".
	LinkScope string
	// TextScopes are tried in order on the article page; the first one that
	// matches anything is scanned for emails and @handles. Empty disables the
	// text scan.
	TextScopes []string
	// ProfileSources are tried in order; the first one yielding URLs wins.
	ProfileSources []ProfileSource
	// ProfileLinkScope and ProfileTextScopes apply on the profile page.
	// Defaults "a[href]" and ["body"].
	ProfileLinkScope  string
	ProfileTextScopes []string
	// ExcludedHandles are institutional accounts, compared case-insensitively.
	ExcludedHandles []string
	// ExcludedLinks are link fragments never reported, compared
	// case-insensitively.
	ExcludedLinks []string
}

// Resolver runs the two-phase contact scan.
type Resolver struct {
	Rules  Rules
	Loader Loader
	Origin *url.URL
	Logger *slog.Logger
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	handlePattern   = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.@/])@([A-Za-z0-9_]{2,15})\b`)
	twitterPattern  = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})/?$`)
	linkedinPattern = regexp.MustCompile(`^https?://(?:[a-z]{2,3}\.|www\.)?linkedin\.com/in/[^/?#]+`)
	blueskyPattern  = regexp.MustCompile(`^https?://bsky\.app/profile/[^/?#]+`)
)

// twitter paths that look like handles but are site features.
var reservedHandles = map[string]bool{
	"share": true, "intent": true, "home": true, "i": true, "search": true,
	"hashtag": true, "login": true, "signup": true, "explore": true,
}

// intentMarkers identify share/intent links that are not contact destinations.
var intentMarkers = []string{
	"intent/tweet", "/intent/", "/share?", "/share/", "sharer", "sharearticle", "share-offsite", "shareurl",
}

// Resolve scans the article page, then each profile page at most once, and
// returns the de-duplicated tokens sorted by value. Failures in either phase
// only reduce the tokens returned.
func (r Resolver) Resolve(ctx context.Context, doc *goquery.Document) []record.ContactToken {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	set := newTokenSet()

	if err := r.scanPhase(doc, r.Rules.LinkScope, r.Rules.TextScopes, set); err != nil {
		log.Debug("contact: local scan failed", "error", err)
	}

	if r.Loader != nil {
		visited := make(map[string]bool)
		for _, profileURL := range r.profileURLs(doc) {
			if visited[profileURL] {
				continue
			}
			visited[profileURL] = true

			profile, err := r.Loader.Load(ctx, profileURL)
			if err != nil {
				log.Debug("contact: profile page failed", "url", profileURL, "error", err)
				continue
			}
			textScopes := r.Rules.ProfileTextScopes
			if len(textScopes) == 0 {
				textScopes = []string{"body"}
			}
			if err := r.scanPhase(profile, r.Rules.ProfileLinkScope, textScopes, set); err != nil {
				log.Debug("contact: profile scan failed", "url", profileURL, "error", err)
			}
		}
	}

	return set.sorted()
}

// ProfileURLs returns the absolute, de-duplicated profile URLs referenced by
// the byline.
func (r Resolver) profileURLs(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	for _, src := range r.Rules.ProfileSources {
		var urls []string
		seen := make(map[string]bool)
		doc.Find(src.Selector).Each(func(_ int, s *goquery.Selection) {
			v, ok := s.Attr(src.Attr)
			if !ok {
				return
			}
			abs := r.absolute(v)
			if abs == "" || seen[abs] {
				return
			}
			seen[abs] = true
			urls = append(urls, abs)
		})
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

func (r Resolver) absolute(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if r.Origin == nil {
			return ""
		}
		u = r.Origin.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func (r Resolver) scanPhase(doc *goquery.Document, linkScope string, textScopes []string, set *tokenSet) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scan panicked: %v", rec)
		}
	}()
	if doc == nil {
		return nil
	}
	if linkScope == "" {
		linkScope = "a[href]"
	}
	doc.Find(linkScope).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if tok, ok := r.classifyLink(href); ok {
				set.add(tok)
			}
		}
	})

	for _, scope := range textScopes {
		sel := doc.Find(scope)
		if sel.Length() == 0 {
			continue
		}
		for _, tok := range r.scanText(sel.Text()) {
			set.add(tok)
		}
		break
	}
	return nil
}

// classifyLink turns an href into a contact token, rejecting share/intent
// links and excluded accounts.
func (r Resolver) classifyLink(href string) (record.ContactToken, bool) {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || r.isExcludedLink(lower) {
		return record.ContactToken{}, false
	}

	if strings.HasPrefix(lower, "mailto:") {
		addr, _, _ := strings.Cut(href[len("mailto:"):], "?")
		addr = strings.TrimSpace(addr)
		if addr == "" || !strings.Contains(addr, "@") {
			return record.ContactToken{}, false
		}
		return record.ContactToken{Kind: record.ContactEmail, Value: "mailto:" + addr}, true
	}

	for _, marker := range intentMarkers {
		if strings.Contains(lower, marker) {
			return record.ContactToken{}, false
		}
	}

	if m := twitterPattern.FindStringSubmatch(href); m != nil {
		handle := strings.ToLower(m[1])
		if reservedHandles[handle] || r.isExcludedHandle(handle) {
			return record.ContactToken{}, false
		}
		return record.ContactToken{Kind: record.ContactHandle, Value: strings.TrimSuffix(href, "/")}, true
	}
	if m := linkedinPattern.FindString(href); m != "" {
		return record.ContactToken{Kind: record.ContactProfile, Value: m}, true
	}
	if m := blueskyPattern.FindString(href); m != "" {
		return record.ContactToken{Kind: record.ContactProfile, Value: m}, true
	}
	return record.ContactToken{}, false
}

// scanText finds bare email addresses and @handles in visible text.
func (r Resolver) scanText(text string) []record.ContactToken {
	var out []record.ContactToken
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".")
		if r.isExcludedLink("mailto:" + strings.ToLower(m)) {
			continue
		}
		out = append(out, record.ContactToken{Kind: record.ContactEmail, Value: "mailto:" + m})
	}
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		handle := strings.ToLower(m[1])
		if reservedHandles[handle] || r.isExcludedHandle(handle) {
			continue
		}
		out = append(out, record.ContactToken{Kind: record.ContactHandle, Value: "https://twitter.com/" + handle})
	}
	return out
}

func (r Resolver) isExcludedHandle(handle string) bool {
	for _, h := range r.Rules.ExcludedHandles {
		if strings.EqualFold(strings.TrimPrefix(h, "@"), handle) {
			return true
		}
	}
	return false
}

func (r Resolver) isExcludedLink(lowerHref string) bool {
	for _, l := range r.Rules.ExcludedLinks {
		if l != "" && strings.Contains(lowerHref, strings.ToLower(l)) {
			return true
		}
	}
	return false
}

// tokenSet de-duplicates tokens by case-folded value.
type tokenSet struct {
	byKey map[string]record.ContactToken
}

func newTokenSet() *tokenSet {
	return &tokenSet{byKey: make(map[string]record.ContactToken)}
}

func (s *tokenSet) add(tok record.ContactToken) {
	key := strings.ToLower(tok.Value)
	if _, ok := s.byKey[key]; !ok {
		s.byKey[key] = tok
	}
}

func (s *tokenSet) sorted() []record.ContactToken {
	out := make([]record.ContactToken, 0, len(s.byKey))
	for _, tok := range s.byKey {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
