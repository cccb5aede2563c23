package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/pricing"
)

type AddItemInput struct {
	ProductID string `json:"productId" binding:"required"`
}

type QuantityInput struct {
	// Pointer so that an explicit 0 (remove) is distinguishable from a
	// missing field.
	Quantity *int `json:"quantity" binding:"required"`
}

type OpenInput struct {
	Open bool `json:"open"`
}

func deviceID(c *gin.Context) (string, bool) {
	session, ok := auth.SessionFrom(c)
	if !ok || session.DeviceID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return session.DeviceID, true
}

// mutate runs fn against the caller's cart and responds with the new
// snapshot.
func mutate(c *gin.Context, carts *cart.Service, log *zap.Logger, fn func(*cart.Cart)) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	var snap cart.Snapshot
	err := carts.Do(c.Request.Context(), device, func(ct *cart.Cart) error {
		fn(ct)
		snap = ct.Snapshot()
		return nil
	})
	if err != nil {
		log.Error("❌ cart update failed", zap.String("device_id", device), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /cart
func GetCart(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, ok := deviceID(c)
		if !ok {
			return
		}
		snap, err := carts.Snapshot(c.Request.Context(), device)
		if err != nil {
			log.Error("❌ failed to load cart", zap.String("device_id", device), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// POST /cart/items
// Title, kind, price and thumbnail come from the catalog, not the client.
func AddItem(carts *cart.Service, cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product, found := cat.Get(input.ProductID)
		if !found {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
			return
		}

		mutate(c, carts, log, func(ct *cart.Cart) {
			ct.AddItem(cart.NewItem{
				ProductID: product.ID,
				Kind:      product.Kind,
				Title:     product.Title,
				Price:     product.Price,
				Thumbnail: product.Thumbnail,
			})
		})
	}
}

// PUT /cart/items/:productId
func UpdateQuantity(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input QuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		productID := c.Param("productId")
		mutate(c, carts, log, func(ct *cart.Cart) {
			ct.UpdateQuantity(productID, *input.Quantity)
		})
	}
}

// DELETE /cart/items/:productId
func RemoveItem(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("productId")
		mutate(c, carts, log, func(ct *cart.Cart) {
			ct.RemoveItem(productID)
		})
	}
}

// DELETE /cart
func ClearCart(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mutate(c, carts, log, func(ct *cart.Cart) {
			ct.Clear()
		})
	}
}

// PUT /cart/open
func SetOpen(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input OpenInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		mutate(c, carts, log, func(ct *cart.Cart) {
			ct.SetOpen(input.Open)
		})
	}
}

// GET /cart/summary?promo=SAVE10
func GetSummary(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, ok := deviceID(c)
		if !ok {
			return
		}
		snap, err := carts.Snapshot(c.Request.Context(), device)
		if err != nil {
			log.Error("❌ failed to load cart", zap.String("device_id", device), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"cart":    snap,
			"summary": pricing.Compute(snap.TotalPrice, c.Query("promo")).Display(),
		})
	}
}

// GET /admin/devices/:device_id/cart
func GetDeviceCart(carts *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := c.Param("device_id")
		if device == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
			return
		}
		snap, err := carts.Snapshot(c.Request.Context(), device)
		if err != nil {
			log.Error("❌ failed to load cart", zap.String("device_id", device), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
