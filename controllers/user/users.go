package userControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/models"
)

type UpdateUserInput struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// GET /user
func GetUser(svc *auth.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := auth.SessionFrom(c)
		user, err := svc.User(c.Request.Context(), session.UserID)
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to load user", zap.String("user_id", session.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		c.JSON(http.StatusOK, user.Profile())
	}
}

// GET /admin/users
func GetAllUsers(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.WithContext(c.Request.Context()).
			Preload("Purchases").
			Order("created_at desc").
			Find(&users).Error; err != nil {
			log.Error("❌ failed to fetch users", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}

		profiles := make([]models.Profile, 0, len(users))
		for i := range users {
			profiles = append(profiles, users[i].Profile())
		}
		c.JSON(http.StatusOK, profiles)
	}
}

// PUT /user
// The device's remembered profile is refreshed too.
func UpdateUser(svc *auth.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := auth.SessionFrom(c)

		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		ctx := c.Request.Context()
		user, err := svc.UpdateProfile(ctx, session.UserID, input.Name, input.Avatar)
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to update user", zap.String("user_id", session.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}

		profile := user.Profile()
		if err := svc.Remember(ctx, session.DeviceID, profile); err != nil {
			log.Warn("⚠️ failed to refresh remembered profile", zap.String("device_id", session.DeviceID), zap.Error(err))
		}
		c.JSON(http.StatusOK, profile)
	}
}
