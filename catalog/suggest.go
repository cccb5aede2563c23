package catalog

import (
	"strings"

	"github.com/vin-devs/learnsite/models"
)

const (
	MinSuggestLen  = 2
	MaxSuggestions = 8
)

// Suggest collects distinct titles, categories and author names containing
// partial. Queries shorter than MinSuggestLen yield no suggestions.
func Suggest(products []models.Product, partial string) []string {
	out := []string{}
	if len([]rune(strings.TrimSpace(partial))) < MinSuggestLen {
		return out
	}

	m := newMatcher(partial)
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" || !m.contains(s) {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for i := range products {
		p := &products[i]
		add(p.Title)
		for _, c := range p.Categories {
			add(c)
		}
		add(p.Author)
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
