package jobs

import (
	"context"

	"github.com/bulkoils/catalog-scraper/internal/database"
	"github.com/bulkoils/catalog-scraper/internal/queue"
)

// StartWorker drains the run queue until the context is canceled. There
// is exactly one worker, which is what serializes overlapping runs.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("run worker started")

	for {
		req, err := m.queue.Pop(ctx)
		if err != nil {
			m.logger.Info("run worker stopping", "reason", err)
			return
		}
		m.processRun(ctx, req)
	}
}

// processRun executes one queued run end to end.
func (m *Manager) processRun(ctx context.Context, req *queue.ScrapeRequest) {
	m.logger.Info("processing run", "id", req.RunID, "urls", len(req.ListingURLs))
	m.markRunning(ctx, req.RunID)

	result := m.scraper.Scrape(ctx, req.ListingURLs, req.MaxPages)

	saveErr := m.store.Save(req.RunID, result.Products)
	if saveErr != nil {
		m.logger.Error("failed to save run results", "id", req.RunID, "error", saveErr)
	}

	if m.repo != nil && saveErr == nil {
		rows := make([]database.RunProduct, len(result.Products))
		for i, p := range result.Products {
			rows[i] = database.RunProduct{Name: p.Name, Price: p.Price, Size: p.Size}
		}
		if err := m.repo.ReplaceProducts(ctx, req.RunID, rows); err != nil {
			m.logger.Error("failed to persist run products", "id", req.RunID, "error", err)
		}
	}

	m.markFinished(ctx, req.RunID, result, saveErr)

	if m.publisher != nil {
		resultPath := m.store.Path(req.RunID)
		if err := m.publisher.PublishRunCompleted(ctx, req.RunID, result, resultPath, saveErr); err != nil {
			m.logger.Error("failed to publish run event", "id", req.RunID, "error", err)
		}
	}

	m.logger.Info("run finished",
		"id", req.RunID,
		"status", result.Status,
		"products", result.Total,
	)
}
