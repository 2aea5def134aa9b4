package sites

import (
	"regexp"

	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
)

const globalNewsByline = ".c-byline__attribution span a.c-byline__name.c-byline__link"

// NewGlobalNews returns the Global News adapter. Contacts come mostly from
// the author profile pages linked in the byline.
func NewGlobalNews() *Site {
	return &Site{
		SiteName:    "globalnews",
		HomepageURL: "https://globalnews.ca",
		Pattern:     regexp.MustCompile(`^https?://globalnews\.ca/news/\d+/.+`),
		FieldSet: extract.FieldSet{
			Title: extract.NewChain("title", extract.Text("h1")),
			Author: extract.NewChain("author",
				extract.TextAll(globalNewsByline, ", "),
				extract.Transform(
					extract.Text("#article-byline .c-byline__attribution span:first-child"),
					extract.TrimPrefixFold("By "),
				),
			),
			Affiliation: extract.NewChain("affiliation",
				extract.Text(".c-byline__source.c-byline__source--hasName, .c-byline__source.c-byline__source--noName"),
			),
			AdditionalAffiliations: extract.NewChain("additional affiliations",
				extract.Transform(
					extract.FirstWithPrefix("article p em", "with files by", "with files from"),
					extract.Trim("—"),
				),
			),
			Date: extract.NewChain("date",
				extract.PublishedUpdated(
					extract.Transform(extract.Text(".c-byline__date--pubDate span"), extract.TrimPrefixFold("Posted")),
					extract.Transform(
						extract.Text(".c-byline__date--ModDate span, .c-byline__date--modDate span"),
						extract.TrimPrefixFold("Updated"),
					),
				),
			),
		},
		MediaStrategies: []media.Strategy{
			media.MediaElements(),
			media.PrefixLinks("player-anchors", "a[href]", "href",
				"https://globalnews.ca/player/play/video/",
				"https://globalnews.ca/player/play/audio/",
			),
			media.AttrScan("player-iframes",
				`iframe.c-video__embed, iframe[id^="miniplayer_"], iframe[src*="youtube.com/embed/"], iframe[src*="youtube-nocookie.com/embed/"]`,
				[]string{"src"}, nil),
			media.JSONLD(),
			media.RawScan(
				regexp.MustCompile(`https://globalnews\.ca/player/play(?:/video)?/[0-9.]+`),
				regexp.MustCompile(`https://globalnews\.ca/player/play/audio/[0-9.]+`),
				regexp.MustCompile(`https://globalnews\.ca/video/embed/[0-9]+[^"'\s]*`),
				regexp.MustCompile(`https://globalnews\.ca/i/phoenix/player/syndicate/\?[^\s"']+`),
				regexp.MustCompile(`https://www\.youtube\.com/embed/[A-Za-z0-9_-]+`),
				regexp.MustCompile(`https://www\.youtube-nocookie\.com/embed/[A-Za-z0-9_-]+`),
			),
		},
		MediaNormalizer:   media.DefaultNormalizer(),
		DisclosureSources: disclosure.DefaultSources(),
		ContactRules: contact.Rules{
			LinkScope:       "article a[href]",
			ProfileSources:  []contact.ProfileSource{{Selector: globalNewsByline, Attr: "href"}},
			ExcludedHandles: []string{"am640", "globalnews"},
			ExcludedLinks:   []string{"linkedin.com/company/global-television"},
		},
	}
}
