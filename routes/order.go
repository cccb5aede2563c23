package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/vin-devs/learnsite/controllers/order"
	"github.com/vin-devs/learnsite/middleware"
)

func SetupOrderRoutes(r *gin.Engine, s *Services) {
	latency := middleware.SimulateLatency(s.Config.SimulatedLatency)

	// Place an order from the device cart
	r.POST("/checkout", latency, middleware.RequireDevice(),
		orderControllers.PlaceOrderHandler(s.Checkout, s.Log))

	// Look up an order by id
	r.GET("/orders/:orderID", latency,
		orderControllers.GetOrderByIDHandler(s.Checkout, s.Config.DemoMode, s.Log))
}
