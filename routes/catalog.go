package routes

import (
	"github.com/gin-gonic/gin"

	productcontroller "github.com/vin-devs/learnsite/controllers/product"
	"github.com/vin-devs/learnsite/middleware"
	"github.com/vin-devs/learnsite/models"
)

// SetupCatalogRoutes registers the public catalog and search endpoints.
func SetupCatalogRoutes(r *gin.Engine, s *Services) {
	search := r.Group("/search")
	search.Use(middleware.SimulateLatency(s.Config.SimulatedLatency))
	{
		search.GET("", productcontroller.Search(s.Catalog))
		search.GET("/suggestions", productcontroller.Suggestions(s.Catalog))
		search.GET("/facets", productcontroller.Facets(s.Catalog))
	}

	r.GET("/products", productcontroller.ListProducts(s.Catalog, ""))
	r.GET("/products/:idOrSlug", productcontroller.GetProduct(s.Catalog))
	r.GET("/courses", productcontroller.ListProducts(s.Catalog, models.KindCourse))
	r.GET("/books", productcontroller.ListProducts(s.Catalog, models.KindBook))
	r.GET("/categories", productcontroller.GetCategories(s.Catalog))
}
