package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vin-devs/learnsite/auth"
)

func bearer(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// Session attaches the caller's session when an Authorization header is
// present. A present but invalid token is rejected.
func Session(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.Next()
			return
		}

		session, err := issuer.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		auth.SetSession(c, session)
		c.Next()
	}
}

// RequireDevice rejects requests without a device session.
func RequireDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.SessionFrom(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser rejects requests from devices nobody is signed in on.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}
		if !session.SignedIn() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
