package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of "attempt_id:status".
const SignatureHeader = "X-Signature"

// SignWebhook computes the signature a gateway sends for a status callback.
func SignWebhook(secret, attemptID, status string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(attemptID + ":" + status))
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentWebhookAuth verifies the callback signature. Sandbox mode skips the
// check so the simulate buttons work without a secret.
func PaymentWebhookAuth(secret string, sandbox bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sandbox {
			log.Debug("sandbox mode: skipping payment webhook signature verification")
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body for signature verification"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var payload struct {
			AttemptID string `json:"attempt_id"`
			Status    string `json:"status"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
			c.Abort()
			return
		}

		provided, err := hex.DecodeString(c.GetHeader(SignatureHeader))
		if err != nil || len(provided) == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing webhook signature"})
			c.Abort()
			return
		}

		expected, _ := hex.DecodeString(SignWebhook(secret, payload.AttemptID, payload.Status))
		if !hmac.Equal(provided, expected) {
			log.Warn("❌ invalid payment webhook signature", zap.String("attempt_id", payload.AttemptID))
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
