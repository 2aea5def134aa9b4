package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/record"
)

// FieldSet groups the chains a site supplies for each record field.
type FieldSet struct {
	Title                  Chain
	Author                 Chain
	Affiliation            Chain
	AdditionalAffiliations Chain
	Date                   Chain
}

// Fields holds the extracted values. Missing values hold their sentinel,
// except Authors, which is empty when no author was found.
type Fields struct {
	Title                  string
	Authors                []string
	Affiliation            string
	AdditionalAffiliations string
	Date                   string
}

// Extract runs every chain in the set against doc.
func (fs FieldSet) Extract(doc *goquery.Document) Fields {
	f := Fields{
		Title:                  fs.Title.WithSentinel(orDefault(fs.Title.Sentinel, record.NoTitle)).Extract(doc).Value,
		Affiliation:            fs.Affiliation.WithSentinel(orDefault(fs.Affiliation.Sentinel, record.NoAffiliation)).Extract(doc).Value,
		AdditionalAffiliations: fs.AdditionalAffiliations.WithSentinel(orDefault(fs.AdditionalAffiliations.Sentinel, record.NoAdditionalAffiliation)).Extract(doc).Value,
		Date:                   fs.Date.WithSentinel(orDefault(fs.Date.Sentinel, record.NoDate)).Extract(doc).Value,
		Authors:                []string{},
	}

	author := fs.Author.Extract(doc)
	if author.Found {
		f.Authors = ParseAuthors(author.Value)
	} else if fs.Author.Sentinel != "" {
		f.Authors = []string{fs.Author.Sentinel}
	}
	return f
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
