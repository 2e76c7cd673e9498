package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scrape pipeline. All
// methods are nil-safe so the service can run without a registry wired.
type Metrics struct {
	Registry         *prometheus.Registry
	PagesFetched     *prometheus.CounterVec
	PageDuration     prometheus.Histogram
	ProductsTotal    *prometheus.CounterVec
	VariantLookups   *prometheus.CounterVec
	VariantCacheHits prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_fetched_total",
			Help: "Listing pages fetched, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_page_duration_seconds",
			Help:    "Listing page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_products_extracted_total",
			Help: "Product records extracted, by strategy.",
		},
		[]string{"strategy"},
	)
	variantLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_variant_lookups_total",
			Help: "Detail-page variant lookups, by outcome.",
		},
		[]string{"outcome"},
	)
	variantCacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_variant_cache_hits_total",
			Help: "Variant lookups answered from the cache.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Scraper errors, by stage.",
		},
		[]string{"stage"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Wall-clock duration of complete scrape runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	registry.MustRegister(pages, pageDuration, products, variantLookups, variantCacheHits, errorsTotal, runDuration)

	return &Metrics{
		Registry:         registry,
		PagesFetched:     pages,
		PageDuration:     pageDuration,
		ProductsTotal:    products,
		VariantLookups:   variantLookups,
		VariantCacheHits: variantCacheHits,
		ErrorsTotal:      errorsTotal,
		RunDuration:      runDuration,
	}
}

func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePage(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

func (m *Metrics) AddProducts(strategy string, n int) {
	if m == nil {
		return
	}
	m.ProductsTotal.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) IncVariantLookup(outcome string) {
	if m == nil {
		return
	}
	m.VariantLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncVariantCacheHit() {
	if m == nil {
		return
	}
	m.VariantCacheHits.Inc()
}

func (m *Metrics) IncError(stage string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}
