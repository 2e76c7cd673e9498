package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/jobs"
)

// URLBuilder turns query terms into listing URLs when a run request does
// not bring its own URLs.
type URLBuilder interface {
	BuildListingURLs(terms []string) []string
}

type Handlers struct {
	jobs         *jobs.Manager
	builder      URLBuilder
	defaultTerms []string
	dbPing       func(ctx context.Context) error // nil without a database
	logger       *slog.Logger
}

func NewHandlers(jobs *jobs.Manager, builder URLBuilder, defaultTerms []string, dbPing func(ctx context.Context) error, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:         jobs,
		builder:      builder,
		defaultTerms: defaultTerms,
		dbPing:       dbPing,
		logger:       logger,
	}
}

// CreateRunRequest represents a new scrape run request. Callers pass
// either explicit listing URLs or search terms; terms are expanded into
// catalogsearch URLs server-side.
type CreateRunRequest struct {
	ListingURLs []string `json:"listing_urls"`
	SearchTerms []string `json:"search_terms"`
	MaxPages    int      `json:"max_pages"`
}

// CreateRunResponse represents the run creation response
type CreateRunResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateRun handles new scrape run creation
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	urls := req.ListingURLs
	if len(req.SearchTerms) > 0 {
		urls = append(urls, h.builder.BuildListingURLs(req.SearchTerms)...)
	}
	// a bare request scrapes the configured default vocabulary
	if len(urls) == 0 {
		urls = h.builder.BuildListingURLs(h.defaultTerms)
	}
	if len(urls) == 0 {
		h.respondError(w, http.StatusBadRequest, "listing_urls or search_terms is required")
		return
	}

	run, err := h.jobs.CreateRun(r.Context(), urls, req.MaxPages)
	if err != nil {
		h.logger.Error("failed to create run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateRunResponse{
		RunID:   run.ID,
		Status:  string(run.Status),
		Message: "Run created successfully",
	})
}

// GetRun handles run status retrieval
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.jobs.GetRun(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

// ListRuns handles listing all runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.ListRuns())
}

// GetRunProducts handles retrieving the output records of a run
func (h *Handlers) GetRunProducts(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	products, err := h.jobs.GetRunProducts(runID)
	if err != nil {
		if errors.Is(err, jobs.ErrRunNotFound) {
			h.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("failed to get run products", "run", runID, "error", err)
		h.respondError(w, http.StatusConflict, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, products)
}

// GetStats handles statistics retrieval
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.GetStats())
}

// Health handles liveness checks, reporting database reachability when
// one is configured.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if h.dbPing != nil {
		if err := h.dbPing(r.Context()); err != nil {
			resp["database"] = "unreachable"
		} else {
			resp["database"] = "ok"
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
