package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

func TestParseVariantTable(t *testing.T) {
	t.Run("grouped table rows", func(t *testing.T) {
		html := `<html><body>
		<table class="table grouped">
			<tr><td>4 oz</td><td>$10.00</td></tr>
			<tr><td>16 oz</td><td>$25.00</td></tr>
			<tr><td>1 gal</td><td>$80.00</td></tr>
		</table>
		</body></html>`

		variants := ParseVariantTable(html)
		require.Len(t, variants, 3)
		assert.Equal(t, models.SizeVariant{Size: "4 oz", Price: "$10.00"}, variants[0])
		assert.Equal(t, models.SizeVariant{Size: "1 gal", Price: "$80.00"}, variants[2])
	})

	t.Run("price is optional", func(t *testing.T) {
		html := `<table id="super-product-table" class="grouped">
			<tr><td>500 ml</td><td>Out of stock</td></tr>
		</table>`

		variants := ParseVariantTable(html)
		require.Len(t, variants, 1)
		assert.Equal(t, "500 ml", variants[0].Size)
		assert.Equal(t, models.ValueNA, variants[0].Price)
	})

	t.Run("rows without a size token are skipped", func(t *testing.T) {
		html := `<table class="grouped">
			<tr><th>Size</th><th>Price</th></tr>
			<tr><td>8 oz</td><td>$14.00</td></tr>
		</table>`

		variants := ParseVariantTable(html)
		require.Len(t, variants, 1)
		assert.Equal(t, "8 oz", variants[0].Size)
	})

	t.Run("USD price format", func(t *testing.T) {
		html := `<table class="grouped">
			<tr><td>1 kg</td><td>32.50 USD</td></tr>
		</table>`

		variants := ParseVariantTable(html)
		require.Len(t, variants, 1)
		assert.Equal(t, "$32.50", variants[0].Price)
	})

	t.Run("no grouped table", func(t *testing.T) {
		assert.Nil(t, ParseVariantTable(`<table><tr><td>4 oz</td></tr></table>`))
	})
}

func TestFindLooseSize(t *testing.T) {
	t.Run("size with nearby price", func(t *testing.T) {
		html := `<div class="product-info">Available in 8 oz bottles for just $14.99 today</div>`

		v, ok := FindLooseSize(html)
		require.True(t, ok)
		assert.Equal(t, "8 oz", v.Size)
		assert.Equal(t, "$14.99", v.Price)
	})

	t.Run("price outside the window is ignored", func(t *testing.T) {
		html := `Our best seller comes in 16 oz jars.` + strings.Repeat(" filler", 80) + ` Compare at $99.00`

		v, ok := FindLooseSize(html)
		require.True(t, ok)
		assert.Equal(t, "16 oz", v.Size)
		assert.Equal(t, models.ValueNA, v.Price)
	})

	t.Run("no size token", func(t *testing.T) {
		_, ok := FindLooseSize(`<div>Contact us for pricing</div>`)
		assert.False(t, ok)
	})
}
