package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/middleware"
)

// SetupAuthRoutes registers all “/auth/*” endpoints.
func SetupAuthRoutes(r *gin.Engine, s *Services) {
	authGroup := r.Group("/auth")
	authGroup.Use(middleware.SimulateLatency(s.Config.SimulatedLatency))
	{
		authGroup.POST("/device", auth.CreateDevice(s.Auth))
		authGroup.POST("/login", auth.Login(s.Auth, s.Carts))
		authGroup.POST("/register", auth.Register(s.Auth))
		authGroup.POST("/forgot-password", auth.ForgotPassword(s.Auth))
		authGroup.POST("/logout", auth.Logout(s.Auth))
		authGroup.GET("/me", auth.Me(s.Auth))
	}
}
