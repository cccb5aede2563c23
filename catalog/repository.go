package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vin-devs/learnsite/models"
)

var ErrProductNotFound = errors.New("product not found")

// Repository is the gorm-backed product and category store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Course").Preload("Book")
}

// Products returns the full catalog in catalog order.
func (r *Repository) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.withDetails(ctx).Order("position ASC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

// Find looks a product up by id or slug.
func (r *Repository) Find(ctx context.Context, idOrSlug string) (*models.Product, error) {
	var p models.Product
	err := r.withDetails(ctx).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", idOrSlug, err)
	}
	return &p, nil
}

// Categories lists categories ordered by name.
func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return cats, nil
}

// Create inserts a new product at the end of the catalog.
func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.Product{}).Select("COALESCE(MAX(position), 0) + 1").Scan(&next).Error; err != nil {
			return err
		}
		p.Position = next
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.ID, err)
		}
		return nil
	})
}

// Delete removes a product and its details.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Select(clause.Associations).Delete(&models.Product{ID: id})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Import upserts products and categories in one transaction. Existing
// products keep their catalog position; new ones are appended in slice order.
func (r *Repository) Import(ctx context.Context, products []models.Product, categories []models.Category) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(categories) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"slug", "icon", "description"}),
			}).Create(&categories).Error
			if err != nil {
				return fmt.Errorf("failed to upsert categories: %w", err)
			}
		}

		var existing []models.Product
		if err := tx.Select("id", "position").Find(&existing).Error; err != nil {
			return err
		}
		positions := make(map[string]int, len(existing))
		next := 0
		for _, e := range existing {
			positions[e.ID] = e.Position
			next = max(next, e.Position)
		}

		for _, p := range products {
			if pos, ok := positions[p.ID]; ok {
				p.Position = pos
			} else {
				next++
				p.Position = next
			}
			// Details are recreated, never updated in place.
			if p.Course != nil {
				c := *p.Course
				c.ID, c.ProductID = 0, ""
				p.Course = &c
			}
			if p.Book != nil {
				b := *p.Book
				b.ID, b.ProductID = 0, ""
				p.Book = &b
			}
			if err := tx.Select(clause.Associations).Delete(&models.Product{ID: p.ID}).Error; err != nil {
				return fmt.Errorf("failed to replace product %s: %w", p.ID, err)
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to import product %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
