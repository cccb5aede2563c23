package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SimulateLatency delays requests by d, giving up early if the client goes
// away. Zero disables it.
func SimulateLatency(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-c.Request.Context().Done():
				t.Stop()
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
