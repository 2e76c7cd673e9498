package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/jobs"
	"github.com/bulkoils/catalog-scraper/internal/models"
	"github.com/bulkoils/catalog-scraper/internal/queue"
	"github.com/bulkoils/catalog-scraper/internal/storage"
)

type stubScraper struct{}

func (stubScraper) Scrape(context.Context, []string, int) *models.RunResult {
	return &models.RunResult{Status: models.RunCompleted}
}

type stubBuilder struct{}

func (stubBuilder) BuildListingURLs(terms []string) []string {
	urls := make([]string, len(terms))
	for i, term := range terms {
		urls[i] = "http://storefront.test/catalogsearch/result/index/?q=" + term
	}
	return urls
}

func newTestRouter(t *testing.T) (*chi.Mux, *jobs.Manager) {
	t.Helper()
	store, err := storage.NewResultStore(t.TempDir())
	require.NoError(t, err)

	q := queue.NewRunQueue()
	t.Cleanup(func() { q.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := jobs.NewManager(q, stubScraper{}, store, nil, nil, logger)
	handlers := NewHandlers(manager, stubBuilder{}, nil, nil, logger)

	r := chi.NewRouter()
	r.Get("/health", handlers.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/runs", handlers.CreateRun)
			r.Get("/runs", handlers.ListRuns)
			r.Get("/runs/{runID}", handlers.GetRun)
			r.Get("/runs/{runID}/products", handlers.GetRunProducts)
		})
		r.Get("/stats", handlers.GetStats)
	})
	return r, manager
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateRun(t *testing.T) {
	t.Run("with listing URLs", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rec := doJSON(t, router, "POST", "/api/v1/scraper/runs", CreateRunRequest{
			ListingURLs: []string{"http://storefront.test/oils.html"},
			MaxPages:    5,
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp CreateRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.RunID)
		assert.Equal(t, string(models.RunPending), resp.Status)
	})

	t.Run("search terms are expanded", func(t *testing.T) {
		router, manager := newTestRouter(t)
		rec := doJSON(t, router, "POST", "/api/v1/scraper/runs", CreateRunRequest{
			SearchTerms: []string{"almond"},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp CreateRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		run, err := manager.GetRun(resp.RunID)
		require.NoError(t, err)
		require.Len(t, run.ListingURLs, 1)
		assert.Contains(t, run.ListingURLs[0], "q=almond")
	})

	t.Run("no URLs or terms", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rec := doJSON(t, router, "POST", "/api/v1/scraper/runs", CreateRunRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bare request uses default terms", func(t *testing.T) {
		store, err := storage.NewResultStore(t.TempDir())
		require.NoError(t, err)
		q := queue.NewRunQueue()
		t.Cleanup(func() { q.Close() })
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		manager := jobs.NewManager(q, stubScraper{}, store, nil, nil, logger)
		handlers := NewHandlers(manager, stubBuilder{}, []string{"oil", "butter"}, nil, logger)

		r := chi.NewRouter()
		r.Post("/runs", handlers.CreateRun)
		rec := doJSON(t, r, "POST", "/runs", CreateRunRequest{})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp CreateRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		run, err := manager.GetRun(resp.RunID)
		require.NoError(t, err)
		assert.Len(t, run.ListingURLs, 2)
	})

	t.Run("invalid body", func(t *testing.T) {
		router, _ := newTestRouter(t)
		req := httptest.NewRequest("POST", "/api/v1/scraper/runs", bytes.NewReader([]byte("{broken")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetRun(t *testing.T) {
	router, manager := newTestRouter(t)

	run, err := manager.CreateRun(context.Background(), []string{"http://x/list"}, 1)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/scraper/runs/"+run.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got jobs.Run
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, run.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/scraper/runs/unknown-id", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListRuns(t *testing.T) {
	router, manager := newTestRouter(t)

	_, err := manager.CreateRun(context.Background(), []string{"http://x/a"}, 1)
	require.NoError(t, err)
	_, err = manager.CreateRun(context.Background(), []string{"http://x/b"}, 1)
	require.NoError(t, err)

	rec := doJSON(t, router, "GET", "/api/v1/scraper/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []jobs.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)
}

func TestGetRunProducts(t *testing.T) {
	router, manager := newTestRouter(t)

	run, err := manager.CreateRun(context.Background(), []string{"http://x/list"}, 1)
	require.NoError(t, err)

	t.Run("pending run conflicts", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/scraper/runs/"+run.ID+"/products", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown run", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/scraper/runs/unknown-id/products", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetStats(t *testing.T) {
	router, manager := newTestRouter(t)

	_, err := manager.CreateRun(context.Background(), []string{"http://x/list"}, 1)
	require.NoError(t, err)

	rec := doJSON(t, router, "GET", "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats jobs.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.PendingRuns)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
