package paymentControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/checkout"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/payment"
)

type StartPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Method  string `json:"method" binding:"required"`
	Phone   string `json:"phone"`
}

// POST /payments
// Amount and email come from the stored order; the client only picks the
// method and, for mobile money, the phone to push to.
func StartPaymentHandler(tracker *payment.Tracker, orders *checkout.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input StartPaymentRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		ctx := c.Request.Context()

		order, err := orders.Order(ctx, input.OrderID)
		if errors.Is(err, checkout.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			log.Error("❌ failed to load order", zap.String("order_id", input.OrderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if order.PaymentStatus == models.PaymentStatusPaid || order.Status != models.OrderStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": "order is not awaiting payment"})
			return
		}

		attempt, err := tracker.Start(ctx, input.Method, payment.Request{
			OrderID: order.ID,
			Amount:  order.Total,
			Email:   order.Email,
			Phone:   input.Phone,
		})
		if errors.Is(err, payment.ErrClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payments are shutting down"})
			return
		}
		if errors.Is(err, payment.ErrInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "a payment for this order is already in progress"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, attempt)
	}
}

// GET /payments/:id
func GetPaymentHandler(tracker *payment.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, err := tracker.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusOK, attempt)
	}
}

// POST /payments/:id/retry
func RetryPaymentHandler(tracker *payment.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, err := tracker.Retry(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, payment.ErrUnknownAttempt):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, payment.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "only failed payments can be retried"})
		case errors.Is(err, payment.ErrInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a payment for this order is already in progress"})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusAccepted, attempt)
		}
	}
}

// WebhookRequest is a gateway status callback. The signature middleware
// signs attempt_id and status.
type WebhookRequest struct {
	AttemptID string `json:"attempt_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=success failed"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// POST /payments/webhook
// In sandbox mode this is also what the "simulate success/failure" buttons
// call.
func PaymentWebhookHandler(tracker *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
			return
		}

		attempt, err := tracker.Callback(payment.Outcome{
			AttemptID: req.AttemptID,
			Success:   req.Status == string(payment.StatusSuccess),
			Reference: req.Reference,
			Reason:    req.Reason,
		})
		switch {
		case errors.Is(err, payment.ErrUnknownAttempt):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		case errors.Is(err, payment.ErrInvalidTransition):
			log.Warn("⚠️ webhook for settled payment", zap.String("attempt_id", req.AttemptID))
			c.JSON(http.StatusConflict, gin.H{"error": "payment is not pending"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Payment status recorded", "payment": attempt})
	}
}
