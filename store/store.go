// Package store keeps a local sqlite ledger of capture runs and the records
// each run produced. The ledger also stops two runs of the same site from
// appending to the sink at the same time.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newscapture/record"
)

// Custom errors for ledger operations
var (
	ErrRunInProgress = errors.New("a capture run for this site is already in progress")
	ErrRunNotFound   = errors.New("run not found")
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusAbandoned RunStatus = "abandoned"
)

// DefaultStaleAfter is how long a run may stay "running" before a new run
// is allowed to take over.
const DefaultStaleAfter = 6 * time.Hour

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one capture session in the ledger.
type Run struct {
	RunID       uuid.UUID  `json:"run_id"`
	Site        string     `json:"site"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	FolderID    *string    `json:"folder_id,omitempty"`
	Discovered  int        `json:"discovered"`
	Assembled   int        `json:"assembled"`
	Skipped     int        `json:"skipped"`
	NotArchived int        `json:"not_archived"`
	LastError   *string    `json:"last_error,omitempty"`
}

// Summary is what a finished run reports back to the ledger.
type Summary struct {
	FolderID    string
	Discovered  int
	Assembled   int
	Skipped     int
	NotArchived int
}

// StoredRecord is an assembled record as kept by the ledger.
type StoredRecord struct {
	RunID      uuid.UUID            `json:"run_id"`
	Position   int                  `json:"position"`
	Record     record.ArticleRecord `json:"record"`
	Archived   bool                 `json:"archived"`
	SnapshotID *string              `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// RunFilter represents filtering options for listing runs.
type RunFilter struct {
	Site   string
	Status RunStatus
	Limit  int
	Offset int
}

// RunStore manages the run ledger using SQLite.
type RunStore struct {
	db         *sql.DB
	staleAfter time.Duration
}

// NewRunStore opens (or creates) the ledger at dbPath.
func NewRunStore(dbPath string, staleAfter time.Duration) (*RunStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	store := &RunStore{db: db, staleAfter: staleAfter}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs and records tables if they don't exist. The
// partial unique index allows at most one running run per site.
func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		folder_id TEXT,
		discovered INTEGER DEFAULT 0,
		assembled INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		not_archived INTEGER DEFAULT 0,
		last_error TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS runs_one_active_per_site
		ON runs(site) WHERE status = 'running';
	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		authors TEXT NOT NULL,
		affiliation TEXT NOT NULL,
		additional_affiliations TEXT NOT NULL,
		contacts TEXT NOT NULL,
		media TEXT NOT NULL,
		disclosure TEXT NOT NULL,
		date_text TEXT NOT NULL,
		source_url TEXT NOT NULL,
		archived INTEGER NOT NULL,
		snapshot_id TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// BeginRun records a new running run for site. Runs left "running" for
// longer than the stale window are marked abandoned first; a younger one
// makes BeginRun fail with ErrRunInProgress.
func (s *RunStore) BeginRun(site string, now time.Time) (*Run, error) {
	cutoff := now.Add(-s.staleAfter)
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ?, last_error = ?
		WHERE site = ? AND status = ? AND started_at < ?`,
		StatusAbandoned, formatTime(&now), "run did not finish",
		site, StatusRunning, formatTime(&cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire stale runs: %w", err)
	}

	run := &Run{
		RunID:     uuid.New(),
		Site:      site,
		Status:    StatusRunning,
		StartedAt: now.Truncate(0),
	}
	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, site, status, started_at)
		VALUES (?, ?, ?, ?)`,
		run.RunID.String(), run.Site, run.Status, formatTime(&run.StartedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// FinishRun closes a run with its counts. A non-nil runErr marks it failed.
func (s *RunStore) FinishRun(runID uuid.UUID, summary Summary, runErr error, now time.Time) error {
	status := StatusCompleted
	var lastError *string
	if runErr != nil {
		status = StatusFailed
		msg := runErr.Error()
		lastError = &msg
	}
	var folderID *string
	if summary.FolderID != "" {
		folderID = &summary.FolderID
	}

	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ?, folder_id = ?,
			discovered = ?, assembled = ?, skipped = ?, not_archived = ?, last_error = ?
		WHERE run_id = ?`,
		status, formatTime(&now), folderID,
		summary.Discovered, summary.Assembled, summary.Skipped, summary.NotArchived, lastError,
		runID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// AddRecord stores the record at position within a run.
func (s *RunStore) AddRecord(runID uuid.UUID, position int, rec record.ArticleRecord, archived bool, snapshotID string, now time.Time) error {
	rec = rec.Normalize()
	authors, err := json.Marshal(rec.Authors)
	if err != nil {
		return fmt.Errorf("failed to marshal authors: %w", err)
	}
	contacts, err := json.Marshal(rec.Contacts)
	if err != nil {
		return fmt.Errorf("failed to marshal contacts: %w", err)
	}
	media, err := json.Marshal(rec.Media)
	if err != nil {
		return fmt.Errorf("failed to marshal media: %w", err)
	}
	disclosure, err := json.Marshal(rec.Disclosure)
	if err != nil {
		return fmt.Errorf("failed to marshal disclosure: %w", err)
	}
	var snapshot *string
	if snapshotID != "" {
		snapshot = &snapshotID
	}

	_, err = s.db.Exec(`
		INSERT INTO records (
			run_id, position, title, authors, affiliation, additional_affiliations,
			contacts, media, disclosure, date_text, source_url, archived, snapshot_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), position, rec.Title, string(authors), rec.Affiliation, rec.AdditionalAffiliations,
		string(contacts), string(media), string(disclosure), rec.Date, rec.SourceURL, archived, snapshot,
		formatTime(&now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

const runColumns = `run_id, site, status, started_at, finished_at, folder_id,
	discovered, assembled, skipped, not_archived, last_error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runID, site, status, startedAt string
	var finishedAt, folderID, lastError sql.NullString
	run := &Run{}

	err := row.Scan(&runID, &site, &status, &startedAt, &finishedAt, &folderID,
		&run.Discovered, &run.Assembled, &run.Skipped, &run.NotArchived, &lastError)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	run.RunID = id
	run.Site = site
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	if folderID.Valid {
		run.FolderID = &folderID.String
	}
	if lastError.Valid {
		run.LastError = &lastError.String
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *RunStore) ListRuns(filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Site != "" {
		query += " AND site = ?"
		args = append(args, filter.Site)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListRecords returns a run's records in discovery order.
func (s *RunStore) ListRecords(runID uuid.UUID) ([]StoredRecord, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT position, title, authors, affiliation, additional_affiliations,
		       contacts, media, disclosure, date_text, source_url, archived, snapshot_id, created_at
		FROM records WHERE run_id = ? ORDER BY position`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []StoredRecord{}
	for rows.Next() {
		var sr StoredRecord
		var authors, contacts, media, disclosure, createdAt string
		var snapshot sql.NullString
		rec := &sr.Record

		err := rows.Scan(&sr.Position, &rec.Title, &authors, &rec.Affiliation, &rec.AdditionalAffiliations,
			&contacts, &media, &disclosure, &rec.Date, &rec.SourceURL, &sr.Archived, &snapshot, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := unmarshalAll(
			[]string{authors, contacts, media, disclosure},
			[]any{&rec.Authors, &rec.Contacts, &rec.Media, &rec.Disclosure},
		); err != nil {
			return nil, err
		}
		sr.RunID = runID
		sr.CreatedAt = parseTime(createdAt)
		if snapshot.Valid {
			sr.SnapshotID = &snapshot.String
		}
		records = append(records, sr)
	}
	return records, rows.Err()
}

func unmarshalAll(data []string, dest []any) error {
	for i := range data {
		if err := json.Unmarshal([]byte(data[i]), dest[i]); err != nil {
			return fmt.Errorf("failed to unmarshal record column: %w", err)
		}
	}
	return nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Truncate(0).UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
