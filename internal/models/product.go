// Package models defines the record types shared between the extraction
// pipeline and the server layer.
package models

import (
	"strconv"
	"time"
)

// Sentinel values carried through the pipeline. They mirror what the
// storefront itself renders when data is missing, so they survive
// round-trips through serialized results.
const (
	NameUnknown = "Unknown"
	ValueNA     = "N/A"
	SizeVarious = "Various sizes available"
)

// Source tags where a raw record came from. Search and category responses
// share a key vocabulary; HTML-derived records carry the fixed field set
// produced by the extractor.
type Source string

const (
	SourceSearch   Source = "search"
	SourceCategory Source = "category"
	SourceHTML     Source = "html"
)

// RawProduct is a product record as it appears in an upstream document,
// before canonicalization. The key set is open: search JSON, category JSON
// and scraped HTML all use different names for the same concepts, so the
// fields stay a map and the accessors below encode the lookup order.
type RawProduct struct {
	Source Source
	Fields map[string]any
}

var (
	nameKeys  = []string{"name", "title", "label"}
	priceKeys = []string{"price", "final_price", "regular_price", "special_price"}
	sizeKeys  = []string{"size", "weight", "volume", "capacity", "amount"}
	urlKeys   = []string{"url", "link", "product_url"}
)

// Name returns the record's display name, or "" when no name key is set.
func (r RawProduct) Name() string {
	for _, k := range nameKeys {
		if v, ok := r.Fields[k]; ok {
			if s := coerceString(v); s != "" && s != NameUnknown {
				return s
			}
		}
	}
	return ""
}

// Price returns the first price candidate and whether it was numeric.
func (r RawProduct) Price() (value string, numeric bool, ok bool) {
	for _, k := range priceKeys {
		v, present := r.Fields[k]
		if !present || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), true, true
		case int:
			return strconv.Itoa(n), true, true
		default:
			return coerceString(v), false, true
		}
	}
	return "", false, false
}

// Size returns the first literal size field, falling back to the
// custom_attributes block in either of its two observed shapes: a list of
// {attribute_code, value} objects or a flat mapping.
func (r RawProduct) Size() (string, bool) {
	for _, k := range sizeKeys {
		if v, ok := r.Fields[k]; ok && v != nil {
			return coerceString(v), true
		}
	}

	attrs, ok := r.Fields["custom_attributes"]
	if !ok {
		return "", false
	}
	switch a := attrs.(type) {
	case []any:
		for _, item := range a {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			code := coerceString(m["attribute_code"])
			for _, k := range sizeKeys {
				if code == k {
					return coerceString(m["value"]), true
				}
			}
		}
	case map[string]any:
		for _, k := range sizeKeys {
			if v, ok := a[k]; ok {
				return coerceString(v), true
			}
		}
	}
	return "", false
}

// URL returns the record's detail-page URL, possibly relative.
func (r RawProduct) URL() string {
	for _, k := range urlKeys {
		if v, ok := r.Fields[k]; ok {
			if s := coerceString(v); s != "" && s != ValueNA {
				return s
			}
		}
	}
	return ""
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Product is the canonical output record. Field order is the serialized
// key order.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Size  string `json:"size"`
}

// SizeVariant is one sized purchase option from a detail page.
type SizeVariant struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

// SentinelVariant is returned when a detail page yields no usable variant.
func SentinelVariant() SizeVariant {
	return SizeVariant{Size: SizeVarious, Price: ValueNA}
}

// IsSentinel reports whether the variant is the no-data sentinel.
func (v SizeVariant) IsSentinel() bool {
	return v.Size == SizeVarious
}

// RunStatus is the lifecycle state of a scrape run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunResult is what a completed walk hands back to the caller.
type RunResult struct {
	Products []Product     `json:"products"`
	Total    int           `json:"total"`
	Elapsed  time.Duration `json:"-"`
	Seconds  float64       `json:"elapsed_seconds"`
	Status   RunStatus     `json:"status"`
}
