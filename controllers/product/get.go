package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vin-devs/learnsite/catalog"
)

// GetProduct returns a single product with its course or book details.
// URL param: /products/:idOrSlug
func GetProduct(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, found := cat.Get(c.Param("idOrSlug"))
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /search/suggestions?q
func Suggestions(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"suggestions": cat.Suggest(c.Query("q"))})
	}
}

// GET /search/facets
// Facets describe the current result set, so the same filters as /search
// apply.
func Facets(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseQuery(c, catalog.SortRelevance)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, catalog.Facets(cat.Search(q)))
	}
}
