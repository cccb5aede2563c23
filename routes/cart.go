package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/vin-devs/learnsite/controllers/cart"
	"github.com/vin-devs/learnsite/middleware"
)

// SetupCartRoutes registers “/cart/*”. Any device token works; signing in
// is not required.
func SetupCartRoutes(r *gin.Engine, s *Services) {
	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.RequireDevice())
	{
		cartGroup.GET("", cartControllers.GetCart(s.Carts, s.Log))
		cartGroup.DELETE("", cartControllers.ClearCart(s.Carts, s.Log))
		cartGroup.GET("/summary", cartControllers.GetSummary(s.Carts, s.Log))
		cartGroup.PUT("/open", cartControllers.SetOpen(s.Carts, s.Log))
		cartGroup.POST("/merge", cartControllers.MergeGuestCart(s.Carts, s.Auth, s.Log))

		cartGroup.POST("/items", cartControllers.AddItem(s.Carts, s.Catalog, s.Log))
		cartGroup.PUT("/items/:productId", cartControllers.UpdateQuantity(s.Carts, s.Log))
		cartGroup.DELETE("/items/:productId", cartControllers.RemoveItem(s.Carts, s.Log))
	}
}
