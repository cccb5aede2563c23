// Package catalog filters, sorts, paginates and suggests over the in-memory
// product catalog.
package catalog

import (
	"fmt"

	"github.com/vin-devs/learnsite/models"
)

// PageSize is the number of products shown per listing page.
const PageSize = 9

// Default price bounds applied when a query does not set them.
const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 1000
)

type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPopular   SortKey = "popular"
	SortRating    SortKey = "rating"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortNewest    SortKey = "newest"
)

// ParseSortKey accepts the sort keys above; an empty string means relevance.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortPopular, SortRating, SortPriceLow, SortPriceHigh, SortNewest:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Query is a free-text search plus structured filters. Empty filter sets
// match everything.
type Query struct {
	Text         string         `json:"text"`
	Categories   []string       `json:"categories"`
	Types        []models.Kind  `json:"types"`
	MinPrice     float64        `json:"minPrice"`
	MaxPrice     float64        `json:"maxPrice"`
	Difficulties []models.Level `json:"difficulties"`
	MinRating    float64        `json:"minRating"`
	Sort         SortKey        `json:"sort"`
}

func NewQuery() Query {
	return Query{
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Sort:     SortRelevance,
	}
}
