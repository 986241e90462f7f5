package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/gin-gonic/gin"
)

// UserKey is the gin context key CurrentUser stores the identity under.
const UserKey = "currentUser"

// CurrentUser runs after Auth. It resolves the token's subject against the
// user store and attaches the full identity to the request context, so a
// token for a deleted account cannot reach any handler.
func CurrentUser(repo repository.UserRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")

		user, err := repo.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				abortUnauthorized(c)
				return
			}
			logger.ErrorContext(c.Request.Context(), "resolve current user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"success": false, "message": "Internal server error"})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// UserFromContext returns the identity attached by CurrentUser.
func UserFromContext(c *gin.Context) *domain.User {
	user, _ := c.Get(UserKey)
	u, _ := user.(*domain.User)
	return u
}
