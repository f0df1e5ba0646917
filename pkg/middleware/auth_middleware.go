package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/utilities"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// RequireAuth ensures the request carries a valid access token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, utilities.Envelope{Status: false, Message: "invalid or expired token", Data: gin.H{}})
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth attaches user claims when a valid token is present and
// otherwise lets the request through anonymously. An invalid or expired token
// is treated the same as no token at all.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c); ok {
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
		}
		c.Next()
	}
}

// AuthedUserID returns the authenticated user id stored by the middlewares.
func AuthedUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		return 0, false
	}
	uid, ok := v.(uint)
	return uid, ok
}

func bearerClaims(c *gin.Context) (*utilities.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utilities.ValidateToken(tokenStr, false)
	if err != nil {
		return nil, false
	}
	return claims, true
}
