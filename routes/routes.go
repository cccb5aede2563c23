package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/checkout"
	"github.com/vin-devs/learnsite/config"
	"github.com/vin-devs/learnsite/middleware"
	"github.com/vin-devs/learnsite/payment"
	"github.com/vin-devs/learnsite/storage"
)

// Services is everything the route groups hand to their controllers.
type Services struct {
	Config   *config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Store    storage.Local
	Catalog  *catalog.Catalog
	Carts    *cart.Service
	Auth     *auth.Service
	Checkout *checkout.Service
	Payments *payment.Tracker
}

// SetupRoutes is the single entry‐point that wires up every route group.
func SetupRoutes(r *gin.Engine, s *Services) {
	// Every route sees the caller's session when a token is sent.
	r.Use(middleware.Session(s.Auth.Issuer()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 1️⃣ Public auth routes
	SetupAuthRoutes(r, s)

	// 2️⃣ Catalog browsing and search
	SetupCatalogRoutes(r, s)

	// 3️⃣ Device cart (device token)
	SetupCartRoutes(r, s)

	// 4️⃣ Checkout, orders and payments
	SetupOrderRoutes(r, s)
	SetupPaymentRoutes(r, s)

	// 5️⃣ User routes (signed-in token)
	SetupUserRoutes(r, s)

	// 6️⃣ Admin routes (API-key)
	SetupAdminRoutes(r, s)
}
