package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/vin-devs/learnsite/models"
)

// matcher folds case once per query. A cases.Caser is not safe for
// concurrent use, so each call builds its own.
type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(text string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.needle = m.fold.String(strings.TrimSpace(text))
	return m
}

func (m *matcher) contains(s string) bool {
	return strings.Contains(m.fold.String(s), m.needle)
}

func (m *matcher) matches(p *models.Product) bool {
	if m.needle == "" {
		return true
	}
	if m.contains(p.Title) || m.contains(p.Description) || m.contains(p.Author) {
		return true
	}
	for _, c := range p.Categories {
		if m.contains(c) {
			return true
		}
	}
	return false
}

// Filter keeps the products that pass every predicate of q, in input order.
func Filter(products []models.Product, q Query) []models.Product {
	m := newMatcher(q.Text)
	out := make([]models.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if !m.matches(p) {
			continue
		}
		if len(q.Categories) > 0 && !slices.ContainsFunc(p.Categories, func(c string) bool {
			return slices.Contains(q.Categories, c)
		}) {
			continue
		}
		if len(q.Types) > 0 && !slices.Contains(q.Types, p.Kind) {
			continue
		}
		if p.Price < q.MinPrice || p.Price > q.MaxPrice {
			continue
		}
		// Difficulty only constrains courses.
		if len(q.Difficulties) > 0 && p.Kind == models.KindCourse &&
			!slices.Contains(q.Difficulties, p.Difficulty()) {
			continue
		}
		if p.Rating < q.MinRating {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Sort returns a stably sorted copy. Relevance keeps input order.
func Sort(products []models.Product, key SortKey) []models.Product {
	out := slices.Clone(products)
	var cmp func(a, b models.Product) int
	switch key {
	case SortPopular:
		cmp = func(a, b models.Product) int { return b.ReviewCount - a.ReviewCount }
	case SortRating:
		cmp = func(a, b models.Product) int { return compareFloat(b.Rating, a.Rating) }
	case SortPriceLow:
		cmp = func(a, b models.Product) int { return compareFloat(a.Price, b.Price) }
	case SortPriceHigh:
		cmp = func(a, b models.Product) int { return compareFloat(b.Price, a.Price) }
	case SortNewest:
		cmp = func(a, b models.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return out
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Search filters then sorts.
func Search(products []models.Product, q Query) []models.Product {
	return Sort(Filter(products, q), q.Sort)
}

// Paginate returns the 1-indexed page [(page-1)*size, page*size). Pages
// outside the list come back empty; callers clamp.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// TotalPages is the number of pages needed for n items.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
