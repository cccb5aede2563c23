package routes

import (
	"github.com/gin-gonic/gin"

	paymentControllers "github.com/vin-devs/learnsite/controllers/payment"
	"github.com/vin-devs/learnsite/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, s *Services) {
	payments := r.Group("/payments")
	{
		payments.POST("", middleware.RequireDevice(),
			paymentControllers.StartPaymentHandler(s.Payments, s.Checkout, s.Log))
		payments.GET("/:id", paymentControllers.GetPaymentHandler(s.Payments))
		payments.POST("/:id/retry", middleware.RequireDevice(),
			paymentControllers.RetryPaymentHandler(s.Payments))

		// Webhook endpoint: middleware handles sandbox/live verification
		payments.POST("/webhook",
			middleware.PaymentWebhookAuth(s.Config.PaymentWebhookSecret, s.Config.Sandbox(), s.Log),
			paymentControllers.PaymentWebhookHandler(s.Payments, s.Log),
		)

		// websocket endpoint for real-time payment updates
		payments.GET("/ws", paymentControllers.PaymentWebSocketHandler(s.Payments, s.Log))
	}
}
