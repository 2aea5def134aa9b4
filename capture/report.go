package capture

import (
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newscapture/discovery"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/store"
)

// State is a step of the session state machine. Session-level states and
// per-article states share the type.
type State string

const (
	StateIdle             State = "idle"
	StateSessionStarted   State = "session-started"
	StateDiscoveringLinks State = "discovering-links"
	StateNavigating       State = "navigating"
	StateExtracting       State = "extracting"
	StateAssembled        State = "assembled"
	StateArchived         State = "archived"
	StateSkipped          State = "skipped"
	StateSessionComplete  State = "session-complete"
)

// Outcome is what happened to one candidate URL.
type Outcome struct {
	URL   discovery.CandidateURL
	State State
	// Record is set once the article reached Assembled.
	Record *record.ArticleRecord
	// SnapshotID is the archive id of the article PDF, empty when the
	// article was not archived.
	SnapshotID string
	// Reason explains a skip or a missing archive.
	Reason string
}

// Archived reports whether the article's snapshot was stored.
func (o Outcome) Archived() bool { return o.State == StateArchived }

// Report summarizes a finished session.
type Report struct {
	RunID              uuid.UUID
	Site               string
	StartedAt          time.Time
	FinishedAt         time.Time
	FolderID           string
	HomepageSnapshotID string
	// Outcomes holds one entry per discovered URL, in discovery order.
	Outcomes []Outcome
}

// Discovered is the number of candidate URLs the session found.
func (r *Report) Discovered() int { return len(r.Outcomes) }

// Records returns the assembled records in discovery order.
func (r *Report) Records() []record.ArticleRecord {
	records := []record.ArticleRecord{}
	for _, o := range r.Outcomes {
		if o.Record != nil {
			records = append(records, *o.Record)
		}
	}
	return records
}

// Skipped returns the outcomes of articles that produced no record.
func (r *Report) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if o.State == StateSkipped {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

// NotArchived counts records that were captured but not archived.
func (r *Report) NotArchived() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Record != nil && !o.Archived() {
			n++
		}
	}
	return n
}

// Rows renders the assembled records as sink rows.
func (r *Report) Rows() [][]string {
	records := r.Records()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	return rows
}

// Summary converts the report into the ledger's counts.
func (r *Report) Summary() store.Summary {
	return store.Summary{
		FolderID:    r.FolderID,
		Discovered:  r.Discovered(),
		Assembled:   len(r.Records()),
		Skipped:     len(r.Skipped()),
		NotArchived: r.NotArchived(),
	}
}
