package sites

import (
	"context"
	"regexp"
	"time"

	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/render"
)

// LaPresse captures www.lapresse.ca. The homepage loads its sections on
// scroll, so it is scrolled to the bottom before links are collected.
type LaPresse struct {
	Site
	ScrollDelay time.Duration
	MaxScrolls  int
}

// NewLaPresse returns the La Presse adapter.
func NewLaPresse() *LaPresse {
	return &LaPresse{
		ScrollDelay: time.Second,
		MaxScrolls:  30,
		Site: Site{
			SiteName:    "lapresse",
			HomepageURL: "https://www.lapresse.ca/",
			Pattern:     regexp.MustCompile(`^https?://www\.lapresse\.ca/.+/\d{4}-\d{2}-\d{2}/.+\.php$`),
			Excluded: []string{
				"https://www.lapresse.ca/renseignements/2023-08-02/" +
					"fin-de-l-acces-aux-nouvelles-sur-facebook-instagram-et-google/" +
					"comment-continuer-de-vous-informer-efficacement-et-gratuitement.php",
			},
			FieldSet: extract.FieldSet{
				Title: extract.NewChain("title",
					extract.Text("h1.headlines.titleModule span.title"),
					extract.Text("h1"),
				),
				Author: extract.NewChain("author",
					extract.Transform(
						extract.TextAll("div.authorModule__details span.authorModule__name", ", "),
						extract.Reject("unknown"),
					),
					extract.Transform(
						extract.Text("div.authorModule__details span.authorModule__affiliation"),
						extract.Reject("unknown"),
					),
					extract.Text(`span.organization.authorModule__organisation[itemprop="affiliation"]`),
				).WithSentinel(record.Unknown),
				Affiliation: extract.NewChain("affiliation", extract.Const("La Presse")),
				AdditionalAffiliations: extract.NewChain("additional affiliations",
					extract.TextAll("p.credit.photoModule__caption.photoModule__caption--credit", "\n"),
				),
				Date: extract.NewChain("date",
					extract.PublishedUpdated(
						extract.Attr(`time[itemprop="datePublished"]`, "datetime"),
						extract.Attr(`time[itemprop="dateModified"]`, "datetime"),
					),
				),
			},
			MediaStrategies: []media.Strategy{
				media.MediaElements(),
				media.Encodings("hls-encodings", "video[data-video-encodings]", "data-video-encodings", "application/x-mpegURL"),
				media.AttrScan("audio-data", "div[data-audio-url], audio[data-audio-url]", []string{"data-audio-url"}, nil),
			},
			MediaNormalizer:   media.DefaultNormalizer(),
			DisclosureSources: disclosure.DefaultSources(),
			ContactRules: contact.Rules{
				LinkScope: "div.authorModule a[href], article a[href]",
				ProfileSources: []contact.ProfileSource{
					{Selector: `div.authorModule meta[itemprop="url"]`, Attr: "content"},
					{Selector: `div.authorModule a[href^="/auteurs/"]`, Attr: "href"},
				},
				ProfileTextScopes: []string{"main", "body"},
				ExcludedHandles:   []string{"lp_lapresse"},
			},
		},
	}
}

// PrepareHomepage scrolls to the bottom until the page stops growing or
// MaxScrolls is reached.
func (l *LaPresse) PrepareHomepage(ctx context.Context, p render.Page) error {
	height, err := p.Evaluate(ctx, `() => document.body.scrollHeight`)
	if err != nil {
		return err
	}
	previous := height.Int()

	for range l.MaxScrolls {
		if _, err := p.Evaluate(ctx, `() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return err
		}
		if err := render.Sleep(ctx, l.ScrollDelay); err != nil {
			return err
		}
		height, err := p.Evaluate(ctx, `() => document.body.scrollHeight`)
		if err != nil {
			return err
		}
		if height.Int() == previous {
			break
		}
		previous = height.Int()
	}
	return nil
}

var _ Adapter = (*LaPresse)(nil)
