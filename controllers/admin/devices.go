package adminController

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/storage"
)

// GET /admin/devices?expired=true
func ListDevices(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Order("created_at desc")
		if c.Query("expired") == "true" {
			q = q.Where("expires_at < ?", time.Now())
		}
		var devices []models.Device
		if err := q.Find(&devices).Error; err != nil {
			log.Error("❌ failed to fetch devices", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
			return
		}
		c.JSON(http.StatusOK, devices)
	}
}

// POST /admin/devices/prune
// Deletes expired devices along with their device-local storage.
func PruneDevices(db *gorm.DB, store storage.Local, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var expired []models.Device
		if err := db.WithContext(ctx).Where("expires_at < ?", time.Now()).Find(&expired).Error; err != nil {
			log.Error("❌ failed to fetch expired devices", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prune devices"})
			return
		}

		pruned := 0
		for _, d := range expired {
			failed := false
			for _, key := range []string{storage.KeyCart, storage.KeyUser} {
				if err := store.Delete(ctx, d.ID, key); err != nil {
					log.Warn("⚠️ failed to clear device storage", zap.String("device_id", d.ID), zap.Error(err))
					failed = true
				}
			}
			if failed {
				continue
			}
			if err := db.WithContext(ctx).Delete(&models.Device{}, "id = ?", d.ID).Error; err != nil {
				log.Warn("⚠️ failed to delete device", zap.String("device_id", d.ID), zap.Error(err))
				continue
			}
			pruned++
		}

		log.Info("🗑️ pruned expired devices", zap.Int("pruned", pruned), zap.Int("expired", len(expired)))
		c.JSON(http.StatusOK, gin.H{"message": "Devices pruned", "pruned_count": pruned})
	}
}
