// Package capture drives a capture session: it discovers article links on a
// site's homepage, turns each article into an ArticleRecord, archives the
// snapshots and hands the records to the sinks.
package capture

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/contact"
	"github.com/pevans/newscapture/disclosure"
	"github.com/pevans/newscapture/extract"
	"github.com/pevans/newscapture/media"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/sites"
)

// Assembler composes the field, media, disclosure and contact extractors
// of one site into a single record builder.
type Assembler struct {
	Fields     extract.FieldSet
	Harvester  media.Harvester
	Disclosure disclosure.Detector
	Contacts   contact.Resolver
}

// NewAssembler configures an Assembler from a site adapter. loader fetches
// author profile pages; nil disables the profile hop.
func NewAssembler(site sites.Adapter, keywords []string, loader contact.Loader, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		Fields: site.Fields(),
		Harvester: media.Harvester{
			Strategies: site.Media(),
			Normalizer: site.Normalizer(),
			Logger:     logger,
		},
		Disclosure: disclosure.Detector{
			Sources:  site.Disclosure(),
			Keywords: keywords,
		},
		Contacts: contact.Resolver{
			Rules:  site.Contacts(),
			Loader: loader,
			Logger: logger,
		},
	}
}

// Assemble builds the record for the article at sourceURL from its parsed
// DOM and raw markup. Every field of the result holds a value or its
// sentinel.
func (a *Assembler) Assemble(ctx context.Context, doc *goquery.Document, raw, sourceURL string) record.ArticleRecord {
	base, _ := url.Parse(sourceURL)

	fields := a.Fields.Extract(doc)
	links := a.Harvester.Harvest(media.Page{Doc: doc, Raw: raw, Base: base})
	disclosed := a.Disclosure.Detect(doc)

	resolver := a.Contacts
	resolver.Origin = base
	contacts := resolver.Resolve(ctx, doc)

	rec := record.ArticleRecord{
		Title:                  fields.Title,
		Authors:                fields.Authors,
		Affiliation:            fields.Affiliation,
		AdditionalAffiliations: fields.AdditionalAffiliations,
		Contacts:               contacts,
		Media:                  links,
		Disclosure:             disclosed,
		Date:                   fields.Date,
		SourceURL:              sourceURL,
	}
	return rec.Normalize()
}
