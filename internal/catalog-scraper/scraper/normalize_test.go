package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

func rawRecord(fields map[string]any) models.RawProduct {
	return models.RawProduct{Source: models.SourceCategory, Fields: fields}
}

func TestNormalize(t *testing.T) {
	n := &normalizer{} // no resolver: listing data only
	ctx := context.Background()

	t.Run("numeric price gains dollar prefix", func(t *testing.T) {
		p, ok := n.normalize(ctx, rawRecord(map[string]any{
			"name": "Sweet Almond Oil", "price": 12.99, "size": "16 oz",
		}))
		require.True(t, ok)
		assert.Equal(t, models.Product{Name: "Sweet Almond Oil", Price: "$12.99", Size: "16 oz"}, p)
	})

	t.Run("string price passes through", func(t *testing.T) {
		p, ok := n.normalize(ctx, rawRecord(map[string]any{
			"name": "Jojoba Oil", "price": "$24.50", "size": "8 oz",
		}))
		require.True(t, ok)
		assert.Equal(t, "$24.50", p.Price)
	})

	t.Run("missing price and size become N/A", func(t *testing.T) {
		p, ok := n.normalize(ctx, rawRecord(map[string]any{"name": "Shea Butter"}))
		require.True(t, ok)
		assert.Equal(t, models.ValueNA, p.Price)
		assert.Equal(t, models.ValueNA, p.Size)
	})

	t.Run("nameless record is dropped", func(t *testing.T) {
		_, ok := n.normalize(ctx, rawRecord(map[string]any{"price": 5.0}))
		assert.False(t, ok)
	})

	t.Run("unknown placeholder name is dropped", func(t *testing.T) {
		_, ok := n.normalize(ctx, rawRecord(map[string]any{"name": models.NameUnknown}))
		assert.False(t, ok)
	})

	t.Run("title and label fallbacks", func(t *testing.T) {
		p, ok := n.normalize(ctx, rawRecord(map[string]any{"title": "Argan Oil"}))
		require.True(t, ok)
		assert.Equal(t, "Argan Oil", p.Name)
	})

	t.Run("normalizing canonical output is a no-op", func(t *testing.T) {
		first, ok := n.normalize(ctx, rawRecord(map[string]any{
			"name": "Castor Oil", "price": 7.25, "size": "500 ml",
		}))
		require.True(t, ok)

		again, ok := n.normalize(ctx, rawRecord(map[string]any{
			"name": first.Name, "price": first.Price, "size": first.Size,
		}))
		require.True(t, ok)
		assert.Equal(t, first, again)
	})
}

func TestNeedsVariant(t *testing.T) {
	assert.True(t, needsVariant(models.SizeVarious))
	assert.True(t, needsVariant(models.ValueNA))
	assert.False(t, needsVariant("16 oz"))
}
