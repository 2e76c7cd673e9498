package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bulkoils/catalog-scraper/internal/httpclient"
	"github.com/bulkoils/catalog-scraper/internal/models"
	"github.com/bulkoils/catalog-scraper/internal/parser"
)

// VariantResolver visits product detail pages to find the smallest sized
// purchase option. It never fails a run: any fetch or parse problem
// degrades to the "Various sizes available" sentinel.
type VariantResolver struct {
	client       *httpclient.Client
	baseURL      string
	cache        *lru.Cache[string, models.SizeVariant]
	logger       *slog.Logger
	strictFamily bool
	metrics      *Metrics
}

// NewVariantResolver builds a resolver with an LRU of cacheSize resolved
// URLs. Detail pages repeat heavily across search terms, so the cache
// keeps re-runs from hammering the storefront.
func NewVariantResolver(client *httpclient.Client, baseURL string, cacheSize int, strictFamily bool, metrics *Metrics, logger *slog.Logger) (*VariantResolver, error) {
	cache, err := lru.New[string, models.SizeVariant](cacheSize)
	if err != nil {
		return nil, err
	}
	return &VariantResolver{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		cache:        cache,
		logger:       logger.With("component", "variant_resolver"),
		strictFamily: strictFamily,
		metrics:      metrics,
	}, nil
}

// Resolve fetches a product's detail page and returns its smallest size
// variant. Relative URLs are resolved against the storefront base.
func (r *VariantResolver) Resolve(ctx context.Context, productURL string) models.SizeVariant {
	target := r.absoluteURL(productURL)
	if target == "" {
		return models.SentinelVariant()
	}

	if v, ok := r.cache.Get(target); ok {
		r.metrics.IncVariantCacheHit()
		return v
	}

	variant := r.fetchVariant(ctx, target)
	r.cache.Add(target, variant)
	return variant
}

func (r *VariantResolver) fetchVariant(ctx context.Context, target string) models.SizeVariant {
	resp, err := r.client.Get(ctx, target)
	if err != nil {
		r.logger.Debug("detail page fetch failed", "url", target, "error", err)
		r.metrics.IncVariantLookup("fetch_error")
		return models.SentinelVariant()
	}
	if !resp.OK() {
		r.logger.Debug("detail page bad status", "url", target, "status", resp.StatusCode)
		r.metrics.IncVariantLookup("bad_status")
		return models.SentinelVariant()
	}

	if variants := parser.ParseVariantTable(resp.Body); len(variants) > 0 {
		if v, ok := parser.SelectSmallest(variants, r.strictFamily); ok {
			r.metrics.IncVariantLookup("table")
			return v
		}
	}

	if v, ok := parser.FindLooseSize(resp.Body); ok {
		r.metrics.IncVariantLookup("loose")
		return v
	}

	r.metrics.IncVariantLookup("none")
	return models.SentinelVariant()
}

func (r *VariantResolver) absoluteURL(productURL string) string {
	productURL = strings.TrimSpace(productURL)
	if productURL == "" || productURL == models.ValueNA {
		return ""
	}
	if strings.HasPrefix(productURL, "http://") || strings.HasPrefix(productURL, "https://") {
		return productURL
	}
	u, err := url.Parse(productURL)
	if err != nil {
		return ""
	}
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
