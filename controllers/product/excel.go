package productcontroller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

const maxWorkbookSize = 10 << 20

// ImportProductsFromExcel creates or updates products from an uploaded
// spreadsheet in the export format.
func ImportProductsFromExcel(cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}
		if header.Size > maxWorkbookSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Excel file is too large"})
			return
		}
		repo, ok := writable(c, cat)
		if !ok {
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read Excel file"})
			return
		}

		existing := make(map[string]models.Product)
		for _, p := range cat.Products() {
			existing[p.ID] = p
		}
		products, res, err := catalog.ReadWorkbook(data, existing)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if len(products) > 0 {
			if err := repo.Import(c.Request.Context(), products, nil); err != nil {
				log.Error("❌ product import failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import products"})
				return
			}
			refresh(c, cat, log)
		}

		log.Info("✅ products imported", zap.Int("created", res.Created), zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped))
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": res.Created,
			"updated_count": res.Updated,
			"skipped_count": res.Skipped,
		})
	}
}
