package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/vin-devs/learnsite/controllers/admin"
	cartControllers "github.com/vin-devs/learnsite/controllers/cart"
	orderControllers "github.com/vin-devs/learnsite/controllers/order"
	productcontroller "github.com/vin-devs/learnsite/controllers/product"
	userControllers "github.com/vin-devs/learnsite/controllers/user"
	"github.com/vin-devs/learnsite/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires API‐Key middleware.
func SetupAdminRoutes(r *gin.Engine, s *Services) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(s.Config.AdminAPIKey))
	{
		// ─────────── Overview & Users ───────────
		adminGroup.GET("/stats", adminController.GetStats(s.DB, s.Log))
		adminGroup.GET("/users", userControllers.GetAllUsers(s.DB, s.Log))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productcontroller.CreateProduct(s.Catalog, s.Log))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(s.Catalog, s.Log))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(s.Catalog, s.Log))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(s.Catalog, s.Log))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(s.Catalog, s.Log))
		}

		// ─────────── Category Management ───────────
		adminGroup.POST("/categories", productcontroller.CreateCategory(s.Catalog, s.Log))

		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(s.Checkout, s.Log))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(s.Checkout, s.Log))
			orderAdmin.DELETE("/:orderID", orderControllers.DeleteOrderHandler(s.Checkout, s.Log))
		}

		// ─────────── Devices ───────────
		deviceMgmt := adminGroup.Group("/devices")
		{
			deviceMgmt.GET("", adminController.ListDevices(s.DB, s.Log))
			deviceMgmt.POST("/prune", adminController.PruneDevices(s.DB, s.Store, s.Log))
			deviceMgmt.GET("/:device_id/cart", cartControllers.GetDeviceCart(s.Carts, s.Log))
		}
	}
}
