package productcontroller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

// CreateProduct adds a course or book to the end of the catalog.
// Body: a product with either "course" or "book" details matching "kind".
func CreateProduct(cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := c.ShouldBindJSON(&product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if err := product.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		repo, ok := writable(c, cat)
		if !ok {
			return
		}
		if _, exists := cat.Get(product.ID); exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Product already exists"})
			return
		}
		if _, exists := cat.Get(product.Slug); exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Product already exists"})
			return
		}
		if product.CreatedAt.IsZero() {
			product.CreatedAt = time.Now()
		}

		if err := repo.Create(c.Request.Context(), &product); err != nil {
			log.Error("❌ failed to create product", zap.String("product_id", product.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		refresh(c, cat, log)

		log.Info("✅ product created", zap.String("product_id", product.ID))
		c.JSON(http.StatusCreated, product)
	}
}
