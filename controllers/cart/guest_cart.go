package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/cart"
)

type MergeInput struct {
	GuestToken string `json:"guest_token" binding:"required"`
}

// POST /cart/merge
// Moves another device's cart into the caller's, summing quantities. Used
// when a visitor continues on a second device. The caller proves ownership
// of the other device by presenting its token.
func MergeGuestCart(carts *cart.Service, sessions *auth.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, ok := deviceID(c)
		if !ok {
			return
		}

		var input MergeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_token is required"})
			return
		}
		guestID, err := sessions.GuestDevice(input.GuestToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid guest token"})
			return
		}
		if guestID == device {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot merge a cart into itself"})
			return
		}

		ctx := c.Request.Context()
		if err := carts.Merge(ctx, guestID, device); err != nil {
			log.Error("❌ guest cart merge failed", zap.String("guest_id", guestID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge guest cart"})
			return
		}

		snap, err := carts.Snapshot(ctx, device)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Guest cart merged", "cart": snap})
	}
}
