package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/cart"
)

// POST /auth/device
func CreateDevice(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, token, err := svc.CreateDevice(c.Request.Context())
		if err != nil {
			svc.log.Error("❌ failed to create device", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create device"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"device_id":  device.ID,
			"token":      token,
			"expires_at": device.ExpiresAt,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	// Token of the previous device whose cart should follow the user.
	GuestToken string `json:"guest_token"`
}

// POST /auth/login
func Login(svc *Service, carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
			return
		}
		ctx := c.Request.Context()

		user, err := svc.Authenticate(ctx, req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		if err != nil {
			svc.log.Error("❌ login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		session, _ := SessionFrom(c)
		token, deviceID, err := svc.SignIn(ctx, session.DeviceID, user)
		if err != nil {
			svc.log.Error("❌ sign-in failed", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		mergeStatus := "no-guest-cart"
		if req.GuestToken != "" {
			guestID, err := svc.GuestDevice(req.GuestToken)
			switch {
			case err != nil:
				svc.log.Warn("⚠️ guest token rejected on login", zap.String("user_id", user.ID), zap.Error(err))
				mergeStatus = "merge-failed"
			case guestID == deviceID:
			default:
				if err := carts.Merge(ctx, guestID, deviceID); err != nil {
					svc.log.Warn("⚠️ guest cart merge failed", zap.String("guest_id", guestID), zap.Error(err))
					mergeStatus = "merge-failed"
				} else {
					mergeStatus = "merged-success"
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"user":         user.Profile(),
			"token":        token,
			"device_id":    deviceID,
			"merge_status": mergeStatus,
			"message":      "Login successful",
		})
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /auth/register
func Register(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Name, a valid email and a password of at least 6 characters are required"})
			return
		}
		ctx := c.Request.Context()

		user, err := svc.Register(ctx, req.Name, req.Email, req.Password)
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
			return
		}
		if err != nil {
			svc.log.Error("❌ registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		session, _ := SessionFrom(c)
		token, deviceID, err := svc.SignIn(ctx, session.DeviceID, user)
		if err != nil {
			svc.log.Error("❌ sign-in failed", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"user":      user.Profile(),
			"token":     token,
			"device_id": deviceID,
			"message":   "Account created successfully",
		})
	}
}

// POST /auth/forgot-password always succeeds so callers cannot test for
// registered emails.
func ForgotPassword(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		svc.log.Info("🔑 password reset requested")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Password reset email sent",
		})
	}
}

// POST /auth/logout
func Logout(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		token, err := svc.SignOut(c.Request.Context(), session.DeviceID)
		if err != nil {
			svc.log.Error("❌ logout failed", zap.String("device_id", session.DeviceID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "message": "Logged out"})
	}
}

// GET /auth/me
func Me(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok || !session.SignedIn() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			return
		}
		user, err := svc.User(c.Request.Context(), session.UserID)
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			svc.log.Error("❌ failed to load user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
	}
}
