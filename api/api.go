// Package api serves a read-only view of the run ledger over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newscapture/record"
	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
)

// Ledger is the read side of the run ledger.
type Ledger interface {
	ListRuns(filter store.RunFilter) ([]store.Run, error)
	GetRun(runID uuid.UUID) (*store.Run, error)
	ListRecords(runID uuid.UUID) ([]store.StoredRecord, error)
}

// RunAPIServer represents the HTTP API server for capture runs.
type RunAPIServer struct {
	ledger Ledger
}

// NewRunAPIServer creates a new run API server.
func NewRunAPIServer(ledger Ledger) *RunAPIServer {
	return &RunAPIServer{ledger: ledger}
}

// SetupRouter configures the Gin router with all run API routes.
func (s *RunAPIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/sites", s.HandleListSites)
	api.GET("/runs", s.HandleListRuns)
	api.GET("/runs/:id", s.HandleGetRun)
	api.GET("/runs/:id/records", s.HandleListRecords)

	return router
}

// ListRunsResponse represents the response for GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// ListRecordsResponse represents the response for GET
// /api/v1/runs/{id}/records. Rows holds each record rendered in Columns
// order, sentinels included.
type ListRecordsResponse struct {
	RunID   uuid.UUID            `json:"run_id"`
	Columns []string             `json:"columns"`
	Records []store.StoredRecord `json:"records"`
	Rows    [][]string           `json:"rows"`
	Total   int                  `json:"total"`
}

// SiteInfo describes one registered site.
type SiteInfo struct {
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *RunAPIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListSites handles GET /api/v1/sites.
func (s *RunAPIServer) HandleListSites(c *gin.Context) {
	infos := []SiteInfo{}
	for _, name := range sites.Names() {
		adapter, err := sites.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, SiteInfo{Name: name, Homepage: adapter.Homepage()})
	}
	c.JSON(http.StatusOK, gin.H{"sites": infos})
}

// HandleListRuns handles GET /api/v1/runs.
func (s *RunAPIServer) HandleListRuns(c *gin.Context) {
	// Build filter from query parameters
	filter := store.RunFilter{
		Site:   c.Query("site"),
		Status: store.RunStatus(c.Query("status")),
	}

	var ok bool
	if filter.Limit, ok = intParam(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(c, "offset"); !ok {
		return
	}

	runs, err := s.ledger.ListRuns(filter)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListRunsResponse{
		Runs:  runs,
		Total: len(runs),
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}.
func (s *RunAPIServer) HandleGetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	run, err := s.ledger.GetRun(runID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// HandleListRecords handles GET /api/v1/runs/{id}/records.
func (s *RunAPIServer) HandleListRecords(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	records, err := s.ledger.ListRecords(runID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Record.Row())
	}

	c.JSON(http.StatusOK, ListRecordsResponse{
		RunID:   runID,
		Columns: record.Columns,
		Records: records,
		Rows:    rows,
		Total:   len(records),
	})
}

// intParam reads a non-negative integer query parameter. It writes a 400
// response and returns false when the value is malformed.
func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", name+" must be a non-negative integer"))
		return 0, false
	}
	return n, true
}
