package catalog

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/models"
)

// Catalog keeps the whole product list in memory for the query engine. The
// dataset is small, so every request filters the full slice.
type Catalog struct {
	repo *Repository
	log  *zap.Logger

	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category
}

// New builds a Catalog backed by repo. Call Refresh before serving.
func New(repo *Repository, log *zap.Logger) *Catalog {
	return &Catalog{repo: repo, log: log}
}

// NewStatic builds a read-only Catalog over a fixed product list.
func NewStatic(products []models.Product, categories []models.Category) *Catalog {
	return &Catalog{
		log:        zap.NewNop(),
		products:   slices.Clone(products),
		categories: slices.Clone(categories),
	}
}

// Refresh reloads the cache from the repository.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	products, err := c.repo.Products(ctx)
	if err != nil {
		return err
	}
	categories, err := c.repo.Categories(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.products = products
	c.categories = categories
	c.mu.Unlock()

	c.log.Info("✅ catalog loaded", zap.Int("products", len(products)), zap.Int("categories", len(categories)))
	return nil
}

// Repository returns the backing store, nil for a static catalog.
func (c *Catalog) Repository() *Repository {
	return c.repo
}

// Products returns a copy of the cached catalog in catalog order.
func (c *Catalog) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

// Get finds a cached product by id or slug.
func (c *Catalog) Get(idOrSlug string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == idOrSlug || p.Slug == idOrSlug {
			return p, true
		}
	}
	return models.Product{}, false
}

// Categories returns the cached categories with product counts filled in.
func (c *Catalog) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range c.products {
		for _, name := range p.Categories {
			counts[name]++
		}
	}
	out := slices.Clone(c.categories)
	for i := range out {
		out[i].ProductCount = counts[out[i].Name]
	}
	return out
}

// Search runs q over the cached catalog.
func (c *Catalog) Search(q Query) []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Search(c.products, q)
}

// Suggest runs the suggestion query over the cached catalog.
func (c *Catalog) Suggest(partial string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Suggest(c.products, partial)
}
