package parser

import (
	"regexp"
	"strings"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

// Grouped-product tables list one purchasable size per row. The table is
// located by attribute because themes disagree on everything else.
var (
	groupedTableRe = regexp.MustCompile(`(?si)<table[^>]*grouped[^>]*>.*?</table>`)
	tableRowRe     = regexp.MustCompile(`(?s)<tr[^>]*>.*?</tr>`)
)

// Size token shapes, weights first to match the upstream row format.
var variantSizeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:oz|lb|lbs|gal|kg|g|fl\s*oz|ounce|pound|gallon|kilogram))`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:ml|liter|litre|l))`),
}

var variantPriceRes = []*regexp.Regexp{
	regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*USD`),
	regexp.MustCompile(`(?i)price["']:\s*["']?([0-9,]+\.?[0-9]*)`),
}

// ParseVariantTable extracts sized purchase options from a detail page's
// grouped product table. A row qualifies only when a size token is found;
// the price is optional and defaults to "N/A".
func ParseVariantTable(html string) []models.SizeVariant {
	table := groupedTableRe.FindString(html)
	if table == "" {
		return nil
	}

	var variants []models.SizeVariant
	for _, row := range tableRowRe.FindAllString(table, -1) {
		size := findSizeToken(row)
		if size == "" {
			continue
		}
		price := models.ValueNA
		for _, re := range variantPriceRes {
			if m := re.FindStringSubmatch(row); m != nil {
				price = "$" + m[1]
				break
			}
		}
		variants = append(variants, models.SizeVariant{Size: size, Price: price})
	}
	return variants
}

// priceWindow is how far around a loose size mention we look for a price.
const priceWindow = 200

var windowPriceRe = regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`)

// FindLooseSize scans a whole document for the first size-like token and
// pairs it with a price found within priceWindow bytes on either side.
// Used when a detail page has no grouped table.
func FindLooseSize(html string) (models.SizeVariant, bool) {
	for _, re := range variantSizeRes {
		loc := re.FindStringSubmatchIndex(html)
		if loc == nil {
			continue
		}
		size := strings.TrimSpace(html[loc[2]:loc[3]])

		start := loc[0] - priceWindow
		if start < 0 {
			start = 0
		}
		end := loc[1] + priceWindow
		if end > len(html) {
			end = len(html)
		}

		price := models.ValueNA
		if m := windowPriceRe.FindStringSubmatch(html[start:end]); m != nil {
			price = "$" + m[1]
		}
		return models.SizeVariant{Size: size, Price: price}, true
	}
	return models.SizeVariant{}, false
}

func findSizeToken(row string) string {
	for _, re := range variantSizeRes {
		if m := re.FindStringSubmatch(row); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
