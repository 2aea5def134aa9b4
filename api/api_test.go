package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var t0 = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Test helper: create a router over a ledger in a temp dir
func setupTestRouter(t *testing.T) (*gin.Engine, *store.RunStore) {
	ledger, err := store.NewRunStore(filepath.Join(t.TempDir(), "test.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return NewRunAPIServer(ledger).SetupRouter(), ledger
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// Test helper: a finished run with one record
func seedRun(t *testing.T, ledger *store.RunStore, site string, at time.Time) *store.Run {
	run, err := ledger.BeginRun(site, at)
	require.NoError(t, err)
	rec := record.ArticleRecord{Title: "Headline", Authors: []string{"Jane Doe"}, SourceURL: "https://example.com/a"}
	require.NoError(t, ledger.AddRecord(run.RunID, 0, rec, true, "file-1", at))
	require.NoError(t, ledger.FinishRun(run.RunID, store.Summary{Discovered: 1, Assembled: 1}, nil, at.Add(time.Minute)))
	return run
}

// TestHandleListRuns_Empty verifies an empty ledger lists no runs
func TestHandleListRuns_Empty(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := get(t, router, "/api/v1/runs")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp ListRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Runs)
	assert.Equal(t, 0, resp.Total)
}

// TestHandleListRuns_Filters verifies the site and limit parameters
func TestHandleListRuns_Filters(t *testing.T) {
	router, ledger := setupTestRouter(t)
	seedRun(t, ledger, "cbc", t0)
	seedRun(t, ledger, "cbc", t0.Add(time.Hour))
	seedRun(t, ledger, "lapresse", t0.Add(2*time.Hour))

	var resp ListRunsResponse
	w := get(t, router, "/api/v1/runs?site=cbc")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	for _, run := range resp.Runs {
		assert.Equal(t, "cbc", run.Site)
	}

	w = get(t, router, "/api/v1/runs?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "lapresse", resp.Runs[0].Site)
}

// TestHandleListRuns_BadLimit verifies malformed paging parameters
func TestHandleListRuns_BadLimit(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, q := range []string{"limit=abc", "offset=-1"} {
		w := get(t, router, "/api/v1/runs?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "validation_error")
	}
}

// TestHandleGetRun verifies a run is returned by id
func TestHandleGetRun(t *testing.T) {
	router, ledger := setupTestRouter(t)
	run := seedRun(t, ledger, "globalnews", t0)

	w := get(t, router, "/api/v1/runs/"+run.RunID.String())
	require.Equal(t, http.StatusOK, w.Code)

	var got store.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.Assembled)
}

// TestHandleGetRun_Errors verifies 400 and 404 responses
func TestHandleGetRun_Errors(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		path string
		code int
		kind string
	}{
		{"/api/v1/runs/not-a-uuid", http.StatusBadRequest, "bad_request"},
		{"/api/v1/runs/" + uuid.New().String(), http.StatusNotFound, "not_found"},
		{"/api/v1/runs/not-a-uuid/records", http.StatusBadRequest, "bad_request"},
		{"/api/v1/runs/" + uuid.New().String() + "/records", http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, router, tt.path)
			assert.Equal(t, tt.code, w.Code)

			var body map[string]map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["error"]["code"])
		})
	}
}

// TestHandleListRecords verifies a run's records are listed
func TestHandleListRecords(t *testing.T) {
	router, ledger := setupTestRouter(t)
	run := seedRun(t, ledger, "cbc", t0)

	w := get(t, router, fmt.Sprintf("/api/v1/runs/%s/records", run.RunID))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListRecordsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, run.RunID, resp.RunID)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Headline", resp.Records[0].Record.Title)
	assert.Equal(t, record.NoDate, resp.Records[0].Record.Date)
	assert.True(t, resp.Records[0].Archived)

	// Rendered rows carry the text sentinels for empty lists
	assert.Equal(t, record.Columns, resp.Columns)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Jane Doe", resp.Rows[0][1])
	assert.Equal(t, record.NoContact, resp.Rows[0][2])
	assert.Equal(t, record.NoMedia, resp.Rows[0][7])
}

// TestHandleListSites verifies the registered sites are listed
func TestHandleListSites(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := get(t, router, "/api/v1/sites")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sites []SiteInfo `json:"sites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sites, 3)
	assert.Equal(t, "cbc", resp.Sites[0].Name)
	assert.NotEmpty(t, resp.Sites[0].Homepage)
}

// TestCORS_Preflight verifies OPTIONS requests are answered directly
func TestCORS_Preflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

type brokenLedger struct{}

func (brokenLedger) ListRuns(store.RunFilter) ([]store.Run, error) {
	return nil, errors.New("disk I/O error")
}

func (brokenLedger) GetRun(uuid.UUID) (*store.Run, error) {
	return nil, errors.New("disk I/O error")
}

func (brokenLedger) ListRecords(uuid.UUID) ([]store.StoredRecord, error) {
	return nil, errors.New("disk I/O error")
}

// TestHandleListRuns_InternalError verifies storage errors are not leaked
func TestHandleListRuns_InternalError(t *testing.T) {
	router := NewRunAPIServer(brokenLedger{}).SetupRouter()

	w := get(t, router, "/api/v1/runs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk I/O")
}
