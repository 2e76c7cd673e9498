// Package scraper implements the scrape pipeline: walking paginated
// listing URLs, extracting raw product records, resolving sized variants
// from detail pages, and normalizing everything into output records.
package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bulkoils/catalog-scraper/internal/httpclient"
	"github.com/bulkoils/catalog-scraper/internal/models"
	"github.com/bulkoils/catalog-scraper/internal/ratelimit"
)

// Service runs complete scrapes against one storefront.
type Service struct {
	client   *httpclient.Client
	resolver *VariantResolver
	throttle *ratelimit.Throttle
	baseURL  string
	maxPages int
	metrics  *Metrics
	logger   *slog.Logger
}

func NewService(client *httpclient.Client, resolver *VariantResolver, baseURL string, maxPages int, pageDelay time.Duration, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		resolver: resolver,
		throttle: ratelimit.NewThrottle(pageDelay),
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
		metrics:  metrics,
		logger:   logger.With("component", "scraper"),
	}
}

// BuildListingURLs turns query terms into catalogsearch listing URLs.
// Every term, search or category, goes through the same endpoint; the
// split only controls which default vocabulary it came from.
func (s *Service) BuildListingURLs(terms []string) []string {
	urls := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		urls = append(urls, s.baseURL+"/catalogsearch/result/index/?q="+url.QueryEscape(term))
	}
	return urls
}

// Scrape walks every listing URL with a capped page count, deduplicates
// by product name, and normalizes the survivors. A failing URL is logged
// and skipped; the run keeps going with the rest.
func (s *Service) Scrape(ctx context.Context, listingURLs []string, maxPages int) *models.RunResult {
	if maxPages <= 0 || maxPages > s.maxPages {
		maxPages = s.maxPages
	}

	start := time.Now()
	w := newWalker(s.client, s.throttle, maxPages, s.metrics, s.logger)
	n := &normalizer{resolver: s.resolver}

	seen := make(map[string]bool)
	var products []models.Product
	failed := 0

	for _, listingURL := range listingURLs {
		if ctx.Err() != nil {
			break
		}

		records, err := w.walk(ctx, listingURL)
		if err != nil {
			failed++
			s.logger.Warn("listing walk aborted", "url", listingURL, "error", err)
		}

		for _, raw := range records {
			name := strings.TrimSpace(raw.Name())
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			if product, ok := n.normalize(ctx, raw); ok {
				products = append(products, product)
			}
		}
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRun(elapsed)

	status := models.RunCompleted
	if len(listingURLs) > 0 && failed == len(listingURLs) && len(products) == 0 {
		status = models.RunFailed
	}

	if products == nil {
		products = []models.Product{}
	}

	result := &models.RunResult{
		Products: products,
		Total:    len(products),
		Elapsed:  elapsed,
		Seconds:  elapsed.Seconds(),
		Status:   status,
	}

	s.logger.Info("scrape finished",
		"urls", len(listingURLs),
		"failed_urls", failed,
		"products", result.Total,
		"elapsed", elapsed.Round(time.Millisecond),
		"status", status,
	)
	return result
}
