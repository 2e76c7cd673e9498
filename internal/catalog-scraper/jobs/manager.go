// Package jobs tracks scrape runs from creation through completion. The
// registry of runs is held in memory and mirrored to Postgres when a
// database is configured, so the API stays usable without one.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bulkoils/catalog-scraper/internal/database"
	"github.com/bulkoils/catalog-scraper/internal/models"
	"github.com/bulkoils/catalog-scraper/internal/queue"
	"github.com/bulkoils/catalog-scraper/internal/storage"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = fmt.Errorf("run not found")

// Run is one scrape run's lifecycle record.
type Run struct {
	ID             string           `json:"id"`
	ListingURLs    []string         `json:"listing_urls"`
	MaxPages       int              `json:"max_pages"`
	Status         models.RunStatus `json:"status"`
	ProductsFound  int              `json:"products_found"`
	ElapsedSeconds float64          `json:"elapsed_seconds,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Stats summarizes the registry for the stats endpoint.
type Stats struct {
	TotalRuns     int     `json:"total_runs"`
	PendingRuns   int     `json:"pending_runs"`
	RunningRuns   int     `json:"running_runs"`
	CompletedRuns int     `json:"completed_runs"`
	FailedRuns    int     `json:"failed_runs"`
	TotalProducts int     `json:"total_products"`
	QueueDepth    int     `json:"queue_depth"`
	SuccessRate   float64 `json:"success_rate"`
}

// Scraper is the part of the scrape service the manager drives.
type Scraper interface {
	Scrape(ctx context.Context, listingURLs []string, maxPages int) *models.RunResult
}

// RunPublisher notifies downstream consumers of finished runs.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, runID string, result *models.RunResult, resultPath string, runErr error) error
}

// Manager owns the run registry and hands work to the queue.
type Manager struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	queue     *queue.RunQueue
	scraper   Scraper
	store     *storage.ResultStore
	repo      *database.RunRepository // nil without a database
	publisher RunPublisher            // nil without the outbox
	logger    *slog.Logger
}

func NewManager(q *queue.RunQueue, scraper Scraper, store *storage.ResultStore, repo *database.RunRepository, publisher RunPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		runs:      make(map[string]*Run),
		queue:     q,
		scraper:   scraper,
		store:     store,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("component", "run_manager"),
	}
}

// CreateRun registers a pending run and enqueues it.
func (m *Manager) CreateRun(ctx context.Context, listingURLs []string, maxPages int) (*Run, error) {
	if len(listingURLs) == 0 {
		return nil, fmt.Errorf("at least one listing URL is required")
	}

	run := &Run{
		ID:          uuid.New().String(),
		ListingURLs: listingURLs,
		MaxPages:    maxPages,
		Status:      models.RunPending,
		CreatedAt:   time.Now(),
	}

	if m.repo != nil {
		record := &database.RunRecord{
			ID:          run.ID,
			ListingURLs: run.ListingURLs,
			MaxPages:    run.MaxPages,
			Status:      string(run.Status),
			CreatedAt:   run.CreatedAt,
		}
		if err := m.repo.Insert(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	err := m.queue.Push(&queue.ScrapeRequest{
		RunID:       run.ID,
		ListingURLs: listingURLs,
		MaxPages:    maxPages,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.runs, run.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to enqueue run: %w", err)
	}

	m.logger.Info("run created", "id", run.ID, "urls", len(listingURLs))
	return run, nil
}

// GetRun retrieves a run by ID.
func (m *Manager) GetRun(runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns all known runs, newest first.
func (m *Manager) ListRuns() []*Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// GetRunProducts loads the output records of a completed run.
func (m *Manager) GetRunProducts(runID string) ([]models.Product, error) {
	m.mu.RLock()
	run, ok := m.runs[runID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}
	if run.Status != models.RunCompleted {
		return nil, fmt.Errorf("run %s is %s, not completed", runID, run.Status)
	}
	return m.store.Load(runID)
}

// GetStats summarizes the registry.
func (m *Manager) GetStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{QueueDepth: m.queue.Size()}
	for _, run := range m.runs {
		stats.TotalRuns++
		switch run.Status {
		case models.RunPending:
			stats.PendingRuns++
		case models.RunRunning:
			stats.RunningRuns++
		case models.RunCompleted:
			stats.CompletedRuns++
			stats.TotalProducts += run.ProductsFound
		case models.RunFailed:
			stats.FailedRuns++
		}
	}
	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.CompletedRuns) / float64(stats.TotalRuns) * 100
	}
	return stats
}

// markRunning transitions a run to running.
func (m *Manager) markRunning(ctx context.Context, runID string) {
	now := time.Now()

	m.mu.Lock()
	if run, ok := m.runs[runID]; ok {
		run.Status = models.RunRunning
		run.StartedAt = &now
	}
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.MarkStarted(ctx, runID, now); err != nil {
			m.logger.Error("failed to mark run started", "id", runID, "error", err)
		}
	}
}

// markFinished records a run's terminal state in the registry and, when
// configured, in the database.
func (m *Manager) markFinished(ctx context.Context, runID string, result *models.RunResult, runErr error) {
	now := time.Now()
	status := models.RunFailed
	products := 0
	seconds := 0.0
	if result != nil {
		status = result.Status
		products = result.Total
		seconds = result.Seconds
	}
	if runErr != nil {
		status = models.RunFailed
	}

	m.mu.Lock()
	if run, ok := m.runs[runID]; ok {
		run.Status = status
		run.ProductsFound = products
		run.ElapsedSeconds = seconds
		run.CompletedAt = &now
		if runErr != nil {
			run.Error = runErr.Error()
		}
	}
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.MarkFinished(ctx, runID, string(status), products, runErr, now); err != nil {
			m.logger.Error("failed to mark run finished", "id", runID, "error", err)
		}
	}
}
