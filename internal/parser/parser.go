// Package parser turns raw storefront responses into product records.
//
// The listing endpoint answers with whatever shape the theme feels like:
// JSON embedded in script tags, Magento list markup, or plain link soup.
// Extraction is therefore a prioritized cascade of strategies; the first
// one that yields records wins.
package parser

import "github.com/bulkoils/catalog-scraper/internal/models"

// Strategy is one way of recovering product records from a page.
type Strategy interface {
	Name() string
	// TryExtract reports ok=false when the page does not match this
	// strategy's shape at all, or matched but produced nothing.
	TryExtract(html string) (records []models.RawProduct, ok bool)
}

// DefaultStrategies returns the cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		EmbeddedJSONStrategy{},
		ListMarkupStrategy{},
		LoosePatternStrategy{},
	}
}

// Extract runs the cascade over a page. It returns nil when every
// strategy comes up empty.
func Extract(html string) []models.RawProduct {
	for _, s := range DefaultStrategies() {
		if records, ok := s.TryExtract(html); ok && len(records) > 0 {
			return records
		}
	}
	return nil
}
