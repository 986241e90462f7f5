package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	errUnauthorized = "Unauthorized"

	// TokenCookie is the cookie login sets and logout expires.
	TokenCookie = "token"
)

// Auth validates a bearer JWT (Authorization header, falling back to the
// token cookie) and sets "userID" in the gin context. Malformed, tampered,
// and expired tokens all fail the same way at the boundary.
func Auth(jwtKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := extractToken(c)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c)
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			abortUnauthorized(c)
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		gin.H{"success": false, "message": errUnauthorized})
}
