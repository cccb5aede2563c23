package catalog

import (
	"slices"

	"github.com/vin-devs/learnsite/models"
)

// FacetSet summarises what filters make sense for a product list.
type FacetSet struct {
	Categories   []string            `json:"categories"`
	Difficulties []models.Level      `json:"difficulties"`
	MinPrice     float64             `json:"minPrice"`
	MaxPrice     float64             `json:"maxPrice"`
	Kinds        map[models.Kind]int `json:"kinds"`
}

// Facets lists categories in first-seen order and the course levels present,
// in display order.
func Facets(products []models.Product) FacetSet {
	f := FacetSet{
		Categories:   []string{},
		Difficulties: []models.Level{},
		Kinds:        map[models.Kind]int{models.KindCourse: 0, models.KindBook: 0},
	}
	levels := make(map[models.Level]bool)
	for i := range products {
		p := &products[i]
		for _, c := range p.Categories {
			if !slices.Contains(f.Categories, c) {
				f.Categories = append(f.Categories, c)
			}
		}
		if lvl := p.Difficulty(); lvl != "" {
			levels[lvl] = true
		}
		if i == 0 || p.Price < f.MinPrice {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
		f.Kinds[p.Kind]++
	}
	for _, lvl := range models.Levels {
		if levels[lvl] {
			f.Difficulties = append(f.Difficulties, lvl)
		}
	}
	return f
}
