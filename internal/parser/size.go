package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

// Family labels which physical dimension a quantity lives in. It is
// informational: the default comparison is by magnitude alone.
type Family string

const (
	FamilyVolume  Family = "volume"
	FamilyWeight  Family = "weight"
	FamilyUnknown Family = "unknown"
)

// Quantity is a size string reduced to a comparable magnitude: milliliters
// for volumes, grams for weights. Unparseable sizes get +Inf so they lose
// every smallest-size comparison.
type Quantity struct {
	Magnitude float64
	Family    Family
}

// Known reports whether the quantity carries a usable magnitude.
func (q Quantity) Known() bool {
	return q.Family != FamilyUnknown && !math.IsInf(q.Magnitude, 1)
}

// Unit factors to the canonical base (ml or g).
const (
	mlPerFlOz = 29.5735
	mlPerL    = 1000.0
	mlPerGal  = 3785.41
	gPerOz    = 28.3495
	gPerLb    = 453.592
	gPerKg    = 1000.0
)

var (
	sizeNumberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	// oz may be glued to the number ("4oz") but must not be a fragment of
	// a longer word.
	looseOzRe = regexp.MustCompile(`(?:^|[^a-z])oz`)
)

// NormalizeSize reduces a free-text size to a Quantity. Unit detection is
// order-sensitive over the lower-cased, whitespace-stripped text; the
// first matching unit wins.
func NormalizeSize(text string) Quantity {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(text))

	num := sizeNumberRe.FindString(s)
	if num == "" {
		return Quantity{Magnitude: math.Inf(1), Family: FamilyUnknown}
	}
	val, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Quantity{Magnitude: math.Inf(1), Family: FamilyUnknown}
	}

	switch {
	case strings.Contains(s, "floz") || strings.Contains(s, "fl.oz"):
		return Quantity{Magnitude: val * mlPerFlOz, Family: FamilyVolume}
	case strings.Contains(s, "ml"):
		return Quantity{Magnitude: val, Family: FamilyVolume}
	case strings.Contains(s, "liter") || strings.Contains(s, "litre"):
		return Quantity{Magnitude: val * mlPerL, Family: FamilyVolume}
	case strings.Contains(s, "gal"):
		// checked before the bare trailing-l rule: "1gal" ends in l but
		// is a gallon, not a liter
		return Quantity{Magnitude: val * mlPerGal, Family: FamilyVolume}
	case strings.HasSuffix(s, "l"):
		return Quantity{Magnitude: val * mlPerL, Family: FamilyVolume}
	case looseOzRe.MatchString(s):
		return Quantity{Magnitude: val * gPerOz, Family: FamilyWeight}
	case strings.Contains(s, "lb") || strings.Contains(s, "pound"):
		return Quantity{Magnitude: val * gPerLb, Family: FamilyWeight}
	case strings.Contains(s, "kg") || strings.Contains(s, "kilogram"):
		return Quantity{Magnitude: val * gPerKg, Family: FamilyWeight}
	case strings.Contains(s, "g"):
		return Quantity{Magnitude: val, Family: FamilyWeight}
	}
	return Quantity{Magnitude: math.Inf(1), Family: FamilyUnknown}
}

// SelectSmallest picks the variant with the minimum normalized magnitude,
// ties broken by first occurrence. With strictFamily set, comparisons are
// confined to the family of the first parseable variant; the default mode
// compares grams against milliliters directly, which is what the
// storefront's own "smallest option" sort does.
//
// When no variant normalizes, the first one is returned as-is. ok is false
// only for an empty input.
func SelectSmallest(variants []models.SizeVariant, strictFamily bool) (models.SizeVariant, bool) {
	if len(variants) == 0 {
		return models.SizeVariant{}, false
	}

	family := FamilyUnknown
	if strictFamily {
		for _, v := range variants {
			if q := NormalizeSize(v.Size); q.Known() {
				family = q.Family
				break
			}
		}
	}

	best := -1
	bestMag := math.Inf(1)
	for i, v := range variants {
		q := NormalizeSize(v.Size)
		if !q.Known() {
			continue
		}
		if strictFamily && family != FamilyUnknown && q.Family != family {
			continue
		}
		if q.Magnitude < bestMag {
			best = i
			bestMag = q.Magnitude
		}
	}
	if best < 0 {
		return variants[0], true
	}
	return variants[best], true
}
