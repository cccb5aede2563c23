package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in session tokens.
const (
	RoleGuest = "guest"
	RoleUser  = "user"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Session is what a token proves about the caller: the device it was issued
// to and, once signed in, the user.
type Session struct {
	DeviceID string
	UserID   string
	Email    string
	Role     string
}

func (s Session) SignedIn() bool { return s.UserID != "" }

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for s.
func (i *Issuer) Issue(s Session) (string, time.Time, error) {
	exp := i.now().Add(i.ttl)
	claims := jwt.MapClaims{
		"device_id": s.DeviceID,
		"role":      s.Role,
		"exp":       exp.Unix(),
	}
	if s.UserID != "" {
		claims["user_id"] = s.UserID
		claims["email"] = s.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token and returns its session.
func (i *Issuer) Parse(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}
	s := Session{
		DeviceID: stringClaim(claims, "device_id"),
		UserID:   stringClaim(claims, "user_id"),
		Email:    stringClaim(claims, "email"),
		Role:     stringClaim(claims, "role"),
	}
	if s.DeviceID == "" {
		return Session{}, ErrInvalidToken
	}
	return s, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func newDeviceID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("device_%d", time.Now().UnixNano())
	}
	return "device_" + hex.EncodeToString(bytes)
}

const sessionKey = "session"

// SetSession stores the caller's session on the request context.
func SetSession(c *gin.Context, s Session) {
	c.Set(sessionKey, s)
	c.Set("device_id", s.DeviceID)
	if s.UserID != "" {
		c.Set("user_id", s.UserID)
	}
}

// SessionFrom returns the session set by the session middleware, if any.
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
