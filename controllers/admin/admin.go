package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/models"
)

type Stats struct {
	Users           int64   `json:"users"`
	Devices         int64   `json:"devices"`
	Orders          int64   `json:"orders"`
	CompletedOrders int64   `json:"completedOrders"`
	Revenue         float64 `json:"revenue"`
	Purchases       int64   `json:"purchases"`
}

// GET /admin/stats
// Revenue sums completed orders only.
func GetStats(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.WithContext(c.Request.Context())
		var s Stats
		err := tx.Model(&models.User{}).Count(&s.Users).Error
		if err == nil {
			err = tx.Model(&models.Device{}).Count(&s.Devices).Error
		}
		if err == nil {
			err = tx.Model(&models.Order{}).Count(&s.Orders).Error
		}
		if err == nil {
			err = tx.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted).Count(&s.CompletedOrders).Error
		}
		if err == nil {
			err = tx.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted).
				Select("COALESCE(SUM(total), 0)").Scan(&s.Revenue).Error
		}
		if err == nil {
			err = tx.Model(&models.Purchase{}).Count(&s.Purchases).Error
		}
		if err != nil {
			log.Error("❌ failed to compute stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
