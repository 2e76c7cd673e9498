package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bulkoils/catalog-scraper/internal/httpclient"
	"github.com/bulkoils/catalog-scraper/internal/models"
	"github.com/bulkoils/catalog-scraper/internal/parser"
	"github.com/bulkoils/catalog-scraper/internal/ratelimit"
)

// walker paginates one listing URL. Pagination is blind: Magento renders
// page N for any N, so the walk stops on the first page that no longer
// looks like a product listing rather than on a "next" link.
type walker struct {
	client     *httpclient.Client
	throttle   *ratelimit.Throttle
	maxPages   int
	metrics    *Metrics
	logger     *slog.Logger
	strategies []parser.Strategy
}

func newWalker(client *httpclient.Client, throttle *ratelimit.Throttle, maxPages int, metrics *Metrics, logger *slog.Logger) *walker {
	return &walker{
		client:     client,
		throttle:   throttle,
		maxPages:   maxPages,
		metrics:    metrics,
		logger:     logger.With("component", "walker"),
		strategies: parser.DefaultStrategies(),
	}
}

// walk fetches pages 1..maxPages of a listing URL and returns every raw
// record extracted. A fetch error is terminal for this URL only; the
// error is returned alongside whatever pages already yielded.
func (w *walker) walk(ctx context.Context, listingURL string) ([]models.RawProduct, error) {
	var records []models.RawProduct

	for page := 1; page <= w.maxPages; page++ {
		if err := w.throttle.Wait(ctx); err != nil {
			return records, err
		}

		pageURL := listingPageURL(listingURL, page)
		start := time.Now()
		resp, err := w.client.Get(ctx, pageURL)
		w.metrics.ObservePage(time.Since(start))
		if err != nil {
			w.metrics.IncPage("error")
			w.metrics.IncError("fetch")
			return records, fmt.Errorf("page %d: %w", page, err)
		}
		if !resp.OK() {
			w.metrics.IncPage("bad_status")
			w.logger.Warn("listing page returned bad status", "url", pageURL, "status", resp.StatusCode)
			return records, nil
		}

		if !hasListingMarkers(resp.Body) {
			w.metrics.IncPage("no_markers")
			w.logger.Debug("page has no listing markers, stopping", "url", pageURL, "page", page)
			return records, nil
		}

		pageRecords, strategy := w.extract(resp.Body)
		w.metrics.IncPage("ok")
		if len(pageRecords) == 0 {
			w.logger.Debug("listing page yielded no records", "url", pageURL, "page", page)
			return records, nil
		}

		w.metrics.AddProducts(strategy, len(pageRecords))
		w.logger.Debug("extracted listing page",
			"url", pageURL,
			"page", page,
			"records", len(pageRecords),
			"strategy", strategy,
		)
		records = append(records, pageRecords...)
	}

	return records, nil
}

func (w *walker) extract(body string) ([]models.RawProduct, string) {
	for _, s := range w.strategies {
		if records, ok := s.TryExtract(body); ok && len(records) > 0 {
			return records, s.Name()
		}
	}
	return nil, ""
}

// hasListingMarkers reports whether a page still looks like a product
// listing. Both markers appear on every themed grid page; their absence
// means pagination ran past the last page.
func hasListingMarkers(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "product") && strings.Contains(lower, "starting at")
}

// listingPageURL appends the page parameter, aware of whether the listing
// URL already carries a query string. Page 1 is the URL as given.
func listingPageURL(listingURL string, page int) string {
	if page <= 1 {
		return listingURL
	}
	sep := "?"
	if strings.Contains(listingURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sp=%d", listingURL, sep, page)
}
