package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bulkoils/catalog-scraper/internal/models"
)

// Patterns that Magento themes use to inline catalog data into a page.
var embeddedJSONRes = []*regexp.Regexp{
	regexp.MustCompile(`(?s)"items":\s*(\[.*?\])`),
	regexp.MustCompile(`(?s)"products":\s*(\[.*?\])`),
	regexp.MustCompile(`(?s)var\s+productData\s*=\s*(\{.*?\});`),
	regexp.MustCompile(`(?s)window\.catalog\s*=\s*(\{.*?\});`),
	regexp.MustCompile(`(?s)"spConfig":\s*(\{.*?\})`),
}

// EmbeddedJSONStrategy pulls product records out of JSON blobs embedded in
// the page source. A candidate blob is accepted when it parses to a
// non-empty array, or to an object carrying a "products" array.
type EmbeddedJSONStrategy struct{}

func (EmbeddedJSONStrategy) Name() string { return "embedded_json" }

func (EmbeddedJSONStrategy) TryExtract(html string) ([]models.RawProduct, bool) {
	for _, re := range embeddedJSONRes {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			records := decodeProductJSON(m[1])
			if len(records) > 0 {
				return records, true
			}
		}
	}
	return nil, false
}

func decodeProductJSON(blob string) []models.RawProduct {
	var data any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil
	}

	var list []any
	switch v := data.(type) {
	case []any:
		list = v
	case map[string]any:
		inner, ok := v["products"].([]any)
		if !ok {
			return nil
		}
		list = inner
	default:
		return nil
	}

	var records []models.RawProduct
	for _, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, models.RawProduct{Source: models.SourceCategory, Fields: fields})
	}
	return records
}

// Link texts that are navigation chrome, not product names.
var anchorStopWords = map[string]bool{
	"view":    true,
	"details": true,
	"more":    true,
}

// Extra stop-words for the loose scan, which sees the whole page rather
// than product fragments.
var looseStopWords = map[string]bool{
	"view":    true,
	"details": true,
	"more":    true,
	"home":    true,
	"contact": true,
	"about":   true,
	"blog":    true,
}

var fragmentPriceRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)starting at[^$]*\$([0-9.,]+)`),
	regexp.MustCompile(`(?i)as low as[^$]*\$([0-9.,]+)`),
	regexp.MustCompile(`(?i)price[^$]*\$([0-9.,]+)`),
	regexp.MustCompile(`\$([0-9.,]+)`),
}

var skuRes = []*regexp.Regexp{
	regexp.MustCompile(`/([a-zA-Z0-9-]+)\.html$`),
	regexp.MustCompile(`-([a-zA-Z][0-9]+)\.html$`),
	regexp.MustCompile(`/([^/]+)$`),
}

// ListMarkupStrategy parses Magento's product grid: list items whose class
// attribute carries the product/item/product-item token run.
type ListMarkupStrategy struct{}

func (ListMarkupStrategy) Name() string { return "list_markup" }

func (ListMarkupStrategy) TryExtract(html string) ([]models.RawProduct, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	var records []models.RawProduct
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if !isProductItemClass(li.AttrOr("class", "")) {
			return
		}
		fragment, err := goquery.OuterHtml(li)
		if err != nil {
			return
		}
		if rec, ok := parseProductFragment(li, fragment); ok {
			records = append(records, rec)
		}
	})
	return records, len(records) > 0
}

// isProductItemClass checks the class attribute for "product", "item" and
// "product-item" appearing in that order, matching how the grid templates
// compose their class lists.
func isProductItemClass(class string) bool {
	i := strings.Index(class, "product")
	if i < 0 {
		return false
	}
	rest := class[i+len("product"):]
	j := strings.Index(rest, "item")
	if j < 0 {
		return false
	}
	return strings.Contains(rest[j+len("item"):], "product-item")
}

// parseProductFragment extracts a single product from one grid item. The
// name comes from the first anchor with real link text; price from the
// first matching price phrase; size is unknown at the listing level.
func parseProductFragment(li *goquery.Selection, fragment string) (models.RawProduct, bool) {
	var name, href string
	li.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link, ok := a.Attr("href")
		if !ok || !strings.HasSuffix(link, ".html") {
			return true
		}
		text := strings.TrimSpace(a.Text())
		if len(text) <= 3 || anchorStopWords[strings.ToLower(text)] {
			return true
		}
		name = text
		href = link
		return false
	})
	if name == "" {
		return models.RawProduct{}, false
	}

	price := models.ValueNA
	for _, re := range fragmentPriceRes {
		if m := re.FindStringSubmatch(fragment); m != nil {
			price = "$" + m[1]
			break
		}
	}

	return models.RawProduct{
		Source: models.SourceHTML,
		Fields: map[string]any{
			"name":  name,
			"price": price,
			"url":   href,
			"sku":   ExtractSKU(href),
			"size":  models.SizeVarious,
		},
	}, true
}

// ExtractSKU derives a SKU from a product URL using the usual Magento URL
// key shapes, last path segment as a fallback.
func ExtractSKU(url string) string {
	for _, re := range skuRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return models.ValueNA
}

var (
	looseNameRe  = regexp.MustCompile(`<a[^>]*href="[^"]*\.html"[^>]*>([^<]+)</a>`)
	loosePriceRe = regexp.MustCompile(`Starting at.*?\$([\d.]+)`)
)

// LoosePatternStrategy is the last resort: scan the page line by line for
// product-looking links, pairing each with a "Starting at $N" price from
// the same or a following line.
type LoosePatternStrategy struct{}

func (LoosePatternStrategy) Name() string { return "loose_pattern" }

func (LoosePatternStrategy) TryExtract(html string) ([]models.RawProduct, bool) {
	var records []models.RawProduct
	var current map[string]any

	flush := func() {
		if current != nil {
			records = append(records, models.RawProduct{Source: models.SourceHTML, Fields: current})
			current = nil
		}
	}

	for _, line := range strings.Split(html, "\n") {
		if m := looseNameRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if len(name) > 3 && !looseStopWords[strings.ToLower(name)] {
				flush()
				current = map[string]any{
					"name":  name,
					"price": models.ValueNA,
					"url":   models.ValueNA,
					"sku":   models.ValueNA,
					"size":  models.SizeVarious,
				}
			}
		}
		if m := loosePriceRe.FindStringSubmatch(line); m != nil && current != nil {
			current["price"] = "$" + m[1]
		}
	}
	flush()

	return records, len(records) > 0
}
