package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

// GET /categories
func GetCategories(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, cat.Categories())
	}
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// POST /admin/categories
// Creates the category, or updates it when the name already exists.
func CreateCategory(cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		repo, ok := writable(c, cat)
		if !ok {
			return
		}

		category := models.Category{
			Name:        strings.TrimSpace(input.Name),
			Slug:        input.Slug,
			Icon:        input.Icon,
			Description: input.Description,
		}
		if category.Slug == "" {
			category.Slug = strings.ToLower(strings.Join(strings.Fields(category.Name), "-"))
		}

		ctx := c.Request.Context()
		categories := []models.Category{category}
		if err := repo.Import(ctx, nil, categories); err != nil {
			log.Error("❌ failed to save category", zap.String("name", category.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		refresh(c, cat, log)
		c.JSON(http.StatusCreated, categories[0])
	}
}

// writable returns the catalog's repository, responding with an error when
// the catalog is static.
func writable(c *gin.Context, cat *catalog.Catalog) (*catalog.Repository, bool) {
	repo := cat.Repository()
	if repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog is read-only"})
		return nil, false
	}
	return repo, true
}

// refresh reloads the cached catalog after a write. The write already
// succeeded, so a failed reload is only logged.
func refresh(c *gin.Context, cat *catalog.Catalog, log *zap.Logger) {
	if err := cat.Refresh(c.Request.Context()); err != nil {
		log.Error("❌ failed to refresh catalog", zap.Error(err))
	}
}
