package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/checkout"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /checkout
func PlaceOrderHandler(svc *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var form checkout.Form
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if fields := form.Validate(); fields != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
			return
		}

		order, err := svc.PlaceOrder(c.Request.Context(), session.DeviceID, session.UserID, form)
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			return
		case errors.Is(err, checkout.ErrUnknownProduct):
			c.JSON(http.StatusConflict, gin.H{"error": "A product in your cart is no longer available"})
			return
		case err != nil:
			log.Error("❌ checkout failed", zap.String("device_id", session.DeviceID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orderId": order.ID,
			"message": "Order placed successfully",
			"order":   order,
		})
	}
}

// GET /orders/:orderID
// In demo mode unknown ids resolve to a canned order so shared demo links
// keep working.
func GetOrderByIDHandler(svc *checkout.Service, demo bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("orderID")
		order, err := svc.Order(c.Request.Context(), id)
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound) && demo:
			c.JSON(http.StatusOK, checkout.CannedOrder(id, time.Now()))
		case errors.Is(err, checkout.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		case err != nil:
			log.Error("❌ failed to load order", zap.String("order_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		default:
			c.JSON(http.StatusOK, order)
		}
	}
}

// GET /user/orders
func GetUserOrdersHandler(svc *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := auth.SessionFrom(c)
		orders, err := svc.UserOrders(c.Request.Context(), session.UserID)
		if err != nil {
			log.Error("❌ failed to load orders", zap.String("user_id", session.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(svc *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.AllOrders(c.Request.Context())
		if err != nil {
			log.Error("❌ failed to load orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(svc *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderID")
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, err := checkout.ParseOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), orderID, status)
		if errors.Is(err, checkout.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to update order status", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "order": order})
	}
}

// DELETE /admin/orders/:orderID
func DeleteOrderHandler(svc *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderID")
		err := svc.DeleteOrder(c.Request.Context(), orderID)
		if errors.Is(err, checkout.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to delete order", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
	}
}
