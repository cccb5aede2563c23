package productcontroller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/catalog"
)

// DeleteProduct removes a product and its details. Existing purchases and
// order lines keep the product id.
func DeleteProduct(cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		repo, ok := writable(c, cat)
		if !ok {
			return
		}
		id := c.Param("id")

		err := repo.Delete(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to delete product", zap.String("product_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		refresh(c, cat, log)

		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
