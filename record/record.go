package record

import (
	"strings"
)

// Sentinel values substituted when a field cannot be extracted. A record never
// carries an empty field; it carries one of these instead.
const (
	NoTitle                 = "No title found"
	NoAuthor                = "No author found"
	NoAffiliation           = "No affiliation found"
	NoDate                  = "No date found"
	NoContact               = "No contact found"
	NoAdditionalAffiliation = "None"
	NoMedia                 = "No media found"
	Unknown                 = "Unknown"
)

// Columns is the fixed column order of the tabular sink.
var Columns = []string{
	"Title",
	"Author",
	"Social/Email",
	"Affiliation",
	"Link",
	"Date Posted/Last Updated",
	"Additional Affiliations",
	"Video/Audio Links",
	"AI Mention",
}

// MediaKind is the inferred kind of a harvested media reference.
type MediaKind string

const (
	MediaVideo   MediaKind = "video"
	MediaAudio   MediaKind = "audio"
	MediaEmbed   MediaKind = "embed"
	MediaUnknown MediaKind = "unknown"
)

// MediaLink is a canonicalized audio/video/embed reference.
type MediaLink struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// ContactKind classifies a contact token.
type ContactKind string

const (
	ContactEmail   ContactKind = "email"
	ContactHandle  ContactKind = "social-handle"
	ContactProfile ContactKind = "profile-link"
)

// ContactToken is one way of reaching an article's author.
type ContactToken struct {
	Kind  ContactKind `json:"kind"`
	Value string      `json:"value"`
}

// DisclosureResult reports whether an article mentions AI involvement.
// Keyword is empty whenever Matched is false.
type DisclosureResult struct {
	Matched bool   `json:"matched"`
	Keyword string `json:"keyword,omitempty"`
}

// String renders the result the way the sheet expects it: "True - <kw>" or
// "False".
func (d DisclosureResult) String() string {
	if !d.Matched {
		return "False"
	}
	return "True - " + d.Keyword
}

// ArticleRecord is the canonical metadata record for one captured article.
type ArticleRecord struct {
	Title                  string           `json:"title"`
	Authors                []string         `json:"authors"`
	Affiliation            string           `json:"affiliation"`
	AdditionalAffiliations string           `json:"additional_affiliations"`
	Contacts               []ContactToken   `json:"contacts"`
	Media                  []MediaLink      `json:"media"`
	Disclosure             DisclosureResult `json:"disclosure"`
	Date                   string           `json:"date"`
	SourceURL              string           `json:"source_url"`
}

// Author joins the author list for display, falling back to the sentinel.
func (r ArticleRecord) Author() string {
	if len(r.Authors) == 0 {
		return NoAuthor
	}
	return strings.Join(r.Authors, ", ")
}

// ContactCell renders contacts newline-joined, or the sentinel.
func (r ArticleRecord) ContactCell() string {
	if len(r.Contacts) == 0 {
		return NoContact
	}
	values := make([]string, 0, len(r.Contacts))
	for _, c := range r.Contacts {
		values = append(values, c.Value)
	}
	return strings.Join(values, "\n")
}

// MediaCell renders media links newline-joined, or the sentinel.
func (r ArticleRecord) MediaCell() string {
	if len(r.Media) == 0 {
		return NoMedia
	}
	urls := make([]string, 0, len(r.Media))
	for _, m := range r.Media {
		urls = append(urls, m.URL)
	}
	return strings.Join(urls, "\n")
}

// Row renders the record in Columns order.
func (r ArticleRecord) Row() []string {
	return []string{
		orSentinel(r.Title, NoTitle),
		r.Author(),
		r.ContactCell(),
		orSentinel(r.Affiliation, NoAffiliation),
		orSentinel(r.SourceURL, Unknown),
		orSentinel(r.Date, NoDate),
		orSentinel(r.AdditionalAffiliations, NoAdditionalAffiliation),
		r.MediaCell(),
		r.Disclosure.String(),
	}
}

// Normalize fills every empty field with its sentinel so the record is
// structurally complete. List fields keep the empty list as their sentinel
// so they marshal as [] rather than null; Row renders the text sentinels.
func (r ArticleRecord) Normalize() ArticleRecord {
	r.Title = orSentinel(r.Title, NoTitle)
	r.Affiliation = orSentinel(r.Affiliation, NoAffiliation)
	r.AdditionalAffiliations = orSentinel(r.AdditionalAffiliations, NoAdditionalAffiliation)
	r.Date = orSentinel(r.Date, NoDate)
	r.SourceURL = orSentinel(r.SourceURL, Unknown)
	if r.Authors == nil {
		r.Authors = []string{}
	}
	if r.Contacts == nil {
		r.Contacts = []ContactToken{}
	}
	if r.Media == nil {
		r.Media = []MediaLink{}
	}
	if !r.Disclosure.Matched {
		r.Disclosure.Keyword = ""
	}
	return r
}

func orSentinel(value, sentinel string) string {
	if strings.TrimSpace(value) == "" {
		return sentinel
	}
	return value
}
