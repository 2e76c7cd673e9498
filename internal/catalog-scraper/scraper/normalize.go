package scraper

import (
	"context"
	"strings"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

// normalizer canonicalizes raw records into output products and, when a
// record reaches it without a concrete size, asks the variant resolver to
// fill one in from the detail page.
type normalizer struct {
	resolver *VariantResolver
}

// normalize turns one raw record into a Product. ok is false when the
// record has no usable name; such records are dropped, never emitted as
// "Unknown" rows. Normalizing an already-canonical record is a no-op.
func (n *normalizer) normalize(ctx context.Context, raw models.RawProduct) (models.Product, bool) {
	name := strings.TrimSpace(raw.Name())
	if name == "" {
		return models.Product{}, false
	}

	product := models.Product{
		Name:  name,
		Price: normalizePrice(raw),
		Size:  normalizeSize(raw),
	}

	if n.resolver != nil && needsVariant(product.Size) {
		if url := raw.URL(); url != "" {
			variant := n.resolver.Resolve(ctx, url)
			if !variant.IsSentinel() {
				product.Size = variant.Size
				if variant.Price != models.ValueNA {
					product.Price = variant.Price
				}
			}
		}
	}

	return product, true
}

// normalizePrice canonicalizes the price field: numeric values gain a
// dollar prefix, string values pass through as the upstream rendered
// them, and a missing price becomes "N/A".
func normalizePrice(raw models.RawProduct) string {
	value, numeric, ok := raw.Price()
	if !ok || strings.TrimSpace(value) == "" {
		return models.ValueNA
	}
	value = strings.TrimSpace(value)
	if numeric {
		return "$" + value
	}
	return value
}

func normalizeSize(raw models.RawProduct) string {
	size, ok := raw.Size()
	if !ok || strings.TrimSpace(size) == "" {
		return models.ValueNA
	}
	return strings.TrimSpace(size)
}

// needsVariant reports whether the listing-level size is a placeholder
// worth a detail-page lookup.
func needsVariant(size string) bool {
	return size == models.SizeVarious || size == models.ValueNA
}
