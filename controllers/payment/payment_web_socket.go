package paymentControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/payment"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /payments/ws?attempt_id=
// Streams payment status changes as JSON. With attempt_id set, only that
// attempt is streamed, starting with its current state.
func PaymentWebSocketHandler(tracker *payment.Tracker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := c.Query("attempt_id")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("⚠️ websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		// Subscribe before reading the current state so no change is missed.
		updates, cancel := tracker.Subscribe()
		defer cancel()

		// The read loop only notices the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(a payment.Attempt) bool {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(a) == nil
		}

		if filter != "" {
			if a, err := tracker.Get(filter); err == nil && !send(a) {
				return
			}
		}

		for {
			select {
			case <-gone:
				return
			case a, ok := <-updates:
				if !ok {
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(writeWait))
					return
				}
				if filter != "" && a.ID != filter {
					continue
				}
				if !send(a) {
					return
				}
			}
		}
	}
}
