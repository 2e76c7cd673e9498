package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

func TestEmbeddedJSONStrategy(t *testing.T) {
	t.Run("items array", func(t *testing.T) {
		html := `<script>var data = {"items": [
			{"name": "Sweet Almond Oil", "price": 12.99, "size": "16 oz"},
			{"name": "Jojoba Oil", "price": "24.50"}
		]};</script>`

		records, ok := EmbeddedJSONStrategy{}.TryExtract(html)
		require.True(t, ok)
		require.Len(t, records, 2)
		assert.Equal(t, "Sweet Almond Oil", records[0].Name())
		price, numeric, found := records[0].Price()
		assert.True(t, found)
		assert.True(t, numeric)
		assert.Equal(t, "12.99", price)
		size, found := records[0].Size()
		assert.True(t, found)
		assert.Equal(t, "16 oz", size)
	})

	t.Run("products object wrapper", func(t *testing.T) {
		html := `<script>window.catalog = {"products": [{"title": "Argan Oil", "final_price": 30}]};</script>`

		records, ok := EmbeddedJSONStrategy{}.TryExtract(html)
		require.True(t, ok)
		require.Len(t, records, 1)
		assert.Equal(t, "Argan Oil", records[0].Name())
	})

	t.Run("custom attributes size", func(t *testing.T) {
		html := `<script>var x = {"items": [
			{"name": "Shea Butter", "custom_attributes": [{"attribute_code": "weight", "value": "8 oz"}]}
		]};</script>`

		records, ok := EmbeddedJSONStrategy{}.TryExtract(html)
		require.True(t, ok)
		size, found := records[0].Size()
		assert.True(t, found)
		assert.Equal(t, "8 oz", size)
	})

	t.Run("malformed JSON is not a match", func(t *testing.T) {
		html := `<script>var data = {"items": [{"name": broken]};</script>`
		_, ok := EmbeddedJSONStrategy{}.TryExtract(html)
		assert.False(t, ok)
	})

	t.Run("empty array is not a match", func(t *testing.T) {
		html := `<script>var data = {"items": []};</script>`
		_, ok := EmbeddedJSONStrategy{}.TryExtract(html)
		assert.False(t, ok)
	})
}

func TestListMarkupStrategy(t *testing.T) {
	t.Run("extracts grid items", func(t *testing.T) {
		html := `<ul>
			<li class="product item product-item">
				<a href="/sweet-almond-oil.html">Sweet Almond Oil</a>
				<span>Starting at $12.99</span>
			</li>
			<li class="product item product-item">
				<a href="/view.html">View</a>
				<a href="/jojoba-oil.html">Golden Jojoba Oil</a>
			</li>
			<li class="nav-item"><a href="/about.html">About Us Page</a></li>
		</ul>`

		records, ok := ListMarkupStrategy{}.TryExtract(html)
		require.True(t, ok)
		require.Len(t, records, 2)

		assert.Equal(t, "Sweet Almond Oil", records[0].Name())
		price, _, found := records[0].Price()
		require.True(t, found)
		assert.Equal(t, "$12.99", price)
		assert.Equal(t, "/sweet-almond-oil.html", records[0].URL())
		size, _ := records[0].Size()
		assert.Equal(t, models.SizeVarious, size)

		// stop-word anchor skipped, real name picked
		assert.Equal(t, "Golden Jojoba Oil", records[1].Name())
		price, _, _ = records[1].Price()
		assert.Equal(t, models.ValueNA, price)
	})

	t.Run("requires ordered class tokens", func(t *testing.T) {
		html := `<ul><li class="item product"><a href="/x-oil.html">Some Oil Name</a></li></ul>`
		_, ok := ListMarkupStrategy{}.TryExtract(html)
		assert.False(t, ok)
	})

	t.Run("short anchor text is skipped", func(t *testing.T) {
		html := `<ul><li class="product item product-item"><a href="/ab.html">ab</a></li></ul>`
		_, ok := ListMarkupStrategy{}.TryExtract(html)
		assert.False(t, ok)
	})
}

func TestLoosePatternStrategy(t *testing.T) {
	t.Run("pairs names with following prices", func(t *testing.T) {
		html := `<div><a href="/coconut-oil.html">Organic Coconut Oil</a></div>
<div>Starting at $9.50</div>
<div><a href="/olive-oil.html">Extra Virgin Olive Oil</a></div>`

		records, ok := LoosePatternStrategy{}.TryExtract(html)
		require.True(t, ok)
		require.Len(t, records, 2)

		price, _, _ := records[0].Price()
		assert.Equal(t, "$9.50", price)
		price, _, _ = records[1].Price()
		assert.Equal(t, models.ValueNA, price)
	})

	t.Run("navigation links are filtered", func(t *testing.T) {
		html := `<a href="/home.html">Home</a>
<a href="/contact.html">Contact</a>`
		_, ok := LoosePatternStrategy{}.TryExtract(html)
		assert.False(t, ok)
	})
}

func TestExtract_CascadeOrder(t *testing.T) {
	// Page matches both JSON and markup shapes; JSON wins.
	html := `<script>var x = {"items": [{"name": "From JSON Blob"}]};</script>
<ul><li class="product item product-item"><a href="/from-markup.html">From Markup Grid</a></li></ul>`

	records := Extract(html)
	require.Len(t, records, 1)
	assert.Equal(t, "From JSON Blob", records[0].Name())
}

func TestExtract_FallsThroughToLoose(t *testing.T) {
	html := `<a href="/castor-oil.html">Cold Pressed Castor Oil</a>
Starting at $7.25`

	records := Extract(html)
	require.Len(t, records, 1)
	assert.Equal(t, "Cold Pressed Castor Oil", records[0].Name())
}

func TestExtract_NothingMatches(t *testing.T) {
	assert.Nil(t, Extract("<html><body>No products here</body></html>"))
}

func TestExtractSKU(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"/sweet-almond-oil.html", "sweet-almond-oil"},
		{"https://example.com/catalog/organic-shea-butter.html", "organic-shea-butter"},
		{"/products/widget", "widget"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSKU(tt.url), "url %s", tt.url)
	}
}

func TestFragmentPricePriority(t *testing.T) {
	// "Starting at" beats a bare dollar amount elsewhere in the fragment
	html := `<ul><li class="product item product-item">
		<a href="/oil-blend.html">Massage Oil Blend</a>
		<span>was $20.00</span>
		<span>Starting at $15.00</span>
	</li></ul>`

	records, ok := ListMarkupStrategy{}.TryExtract(html)
	require.True(t, ok)
	price, _, _ := records[0].Price()
	assert.Equal(t, "$15.00", price)
}
