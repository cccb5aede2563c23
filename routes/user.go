package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/vin-devs/learnsite/controllers/order"
	userControllers "github.com/vin-devs/learnsite/controllers/user"
	"github.com/vin-devs/learnsite/middleware"
)

// SetupUserRoutes registers all “/user/*” endpoints. Requires a signed-in session.
func SetupUserRoutes(r *gin.Engine, s *Services) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.RequireUser())
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("", userControllers.GetUser(s.Auth, s.Log))    // GET /user
		userGroup.PUT("", userControllers.UpdateUser(s.Auth, s.Log)) // PUT /user

		// ──────────────── Purchases ────────────────
		userGroup.GET("/dashboard", userControllers.GetDashboard(s.DB, s.Catalog, s.Log))
		userGroup.PUT("/progress/:productId", userControllers.UpdateProgress(s.DB, s.Catalog, s.Log))
		userGroup.GET("/orders", orderControllers.GetUserOrdersHandler(s.Checkout, s.Log))
	}
}
