package sites

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
	"github.com/pevans/newscapture/render"
)

const cbcPlayerPrefix = "https://www.cbc.ca/player/play/"

// CBC captures www.cbc.ca/news. Its players are injected lazily, so articles
// are poked before harvesting.
type CBC struct {
	Site
	// PlayerWait is how long to let players load after triggering them.
	PlayerWait time.Duration
}

// NewCBC returns the CBC News adapter.
func NewCBC() *CBC {
	return &CBC{
		PlayerWait: 1500 * time.Millisecond,
		Site: Site{
			SiteName:    "cbc",
			HomepageURL: "https://www.cbc.ca/news",
			Pattern:     regexp.MustCompile(`https?://www\.cbc\.ca/.+(-\d+(?:\.\d+)?$|/post/)`),
			Excluded: []string{
				"https://www.cbc.ca/news/about-cbc-news-1.1294364",
				"https://www.cbc.ca/news/corrections-clarifications-1.5893564",
				"https://www.cbc.ca/news/public-appearances-1.4969965",
				"https://www.cbc.ca/accessibility/accessibility-feedback-1.5131151",
			},
			FieldSet: extract.FieldSet{
				Title: extract.NewChain("title", extract.Text("h1")),
				Author: extract.NewChain("author",
					extract.TextAll("div.bylineDetails span.authorText a", ", "),
					extract.Transform(extract.Text("div.bylineDetails"), extract.Before("·")),
				),
				Affiliation:            extract.NewChain("affiliation"),
				AdditionalAffiliations: extract.NewChain("additional affiliations", extract.StateAuthors()),
				Date: extract.NewChain("date",
					extract.Text("time, .date, .posted-date, [class*='date']"),
				),
			},
			MediaStrategies: []media.Strategy{
				media.PrefixLinks("phoenix-player", "phoenix-player[src]", "src", cbcPlayerPrefix+"video/"),
				media.PrefixLinks("player-titles", "span.phx-info-title a[href]", "href", cbcPlayerPrefix+"video/"),
				media.AttrScan("tts-audio", "audio[src]", []string{"src"}, func(v string) bool {
					return strings.HasSuffix(v, ".mp3")
				}),
				media.InitialState(cbcPlayerPrefix, regexp.MustCompile(`https://www\.cbc\.ca/player/play/[0-9.]+`)),
			},
			MediaNormalizer: media.DefaultNormalizer(),
			DisclosureSources: disclosure.Sources{
				Body:  "article p",
				Notes: []string{"div.toggletipInfoText-Us8br"},
			},
			ContactRules: contact.Rules{
				LinkScope:  "ul.authorprofile-links a.authorprofile-item, article a[href]",
				TextScopes: []string{"p.authorprofile-biography", "ul.authorprofile-links", "article"},
				ProfileSources: []contact.ProfileSource{
					{Selector: "div.bylineDetails span.authorText a[href]", Attr: "href"},
				},
				ProfileLinkScope:  "ul.authorprofile-links a.authorprofile-item, main a[href]",
				ProfileTextScopes: []string{"p.authorprofile-biography", "ul.authorprofile-links"},
				ExcludedHandles:   []string{"cbcnews", "cbc"},
			},
		},
	}
}

// triggerPlayers scrolls to the top and clicks the text-to-speech buttons
// twice and each video play control once. It returns the number of clicks.
const triggerPlayers = `() => {
	window.scrollTo(0, 0);
	let clicks = 0;
	const press = (el) => {
		try {
			el.scrollIntoView({block: "center"});
			el.dispatchEvent(new MouseEvent("click", {bubbles: true, cancelable: true}));
			clicks++;
		} catch (e) {}
	};
	document.querySelectorAll("button.ttsPlayPauseButton-b4Yle, .ttsPlayIcon").forEach((el) => { press(el); press(el); });
	document.querySelectorAll("div.play-button-container, svg.videoItemPlayBtn").forEach(press);
	return clicks;
}`

// PrepareArticle triggers TTS and video players so their media elements are
// in the DOM before harvesting.
func (c *CBC) PrepareArticle(ctx context.Context, p render.Page) error {
	if _, err := p.Evaluate(ctx, triggerPlayers); err != nil {
		return err
	}
	return render.Sleep(ctx, c.PlayerWait)
}

var _ Adapter = (*CBC)(nil)
