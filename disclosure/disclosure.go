// Package disclosure flags articles whose text mentions AI involvement.
package disclosure

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/record"
)

// DefaultKeywords is the ordered keyword list. Earlier entries win when more
// than one is present.
var DefaultKeywords = []string{
	"ChatGPT",
	"automated",
	"robot",
	"AI tools",
	"data team",
	"OpenAI",
	"Otter.ai",
	"AI-Based",
	"artificial intelligence",
	"machine learning",
	"AI model",
	"AI technology",
	"AI-generated",
	"AI-assisted",
}

// Detect searches text for keywords case-insensitively, in keyword order, and
// reports the first keyword found.
func Detect(text string, keywords []string) record.DisclosureResult {
	if strings.TrimSpace(text) == "" {
		return record.DisclosureResult{}
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return record.DisclosureResult{Matched: true, Keyword: kw}
		}
	}
	return record.DisclosureResult{}
}

// Sources names where an article's visible text lives.
type Sources struct {
	// Body selects the paragraphs of the article body.
	Body string
	// Notes select auxiliary disclosure blocks such as tooltips.
	Notes []string
}

// DefaultSources reads paragraphs inside <article>.
func DefaultSources() Sources {
	return Sources{Body: "article p"}
}

// Text concatenates body paragraphs followed by note blocks.
func (s Sources) Text(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var parts []string
	collect := func(selector string) {
		if selector == "" {
			return
		}
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if text := extract.NormalizeSpace(sel.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	}
	collect(s.Body)
	for _, n := range s.Notes {
		collect(n)
	}
	return strings.Join(parts, " ")
}

// Detector pairs text sources with a keyword list.
type Detector struct {
	Sources  Sources
	Keywords []string
}

// Detect gathers the document's text and runs Detect over it.
func (d Detector) Detect(doc *goquery.Document) record.DisclosureResult {
	keywords := d.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return Detect(d.Sources.Text(doc), keywords)
}
