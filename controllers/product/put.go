package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

// UpdateProduct replaces an existing product by ID, keeping its catalog
// position. Accepts the same body as CreateProduct.
func UpdateProduct(cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		existing, found := cat.Get(id)
		if !found || existing.ID != id {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}

		var product models.Product
		if err := c.ShouldBindJSON(&product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		product.ID = id
		if product.CreatedAt.IsZero() {
			product.CreatedAt = existing.CreatedAt
		}
		if err := product.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if other, taken := cat.Get(product.Slug); taken && other.ID != id {
			c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
			return
		}
		repo, ok := writable(c, cat)
		if !ok {
			return
		}

		if err := repo.Import(c.Request.Context(), []models.Product{product}, nil); err != nil {
			log.Error("❌ failed to update product", zap.String("product_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		refresh(c, cat, log)

		updated, _ := cat.Get(id)
		c.JSON(http.StatusOK, updated)
	}
}
