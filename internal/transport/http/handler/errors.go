package handler

import (
	"strings"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer     = "Internal server error"
	errInvalidCredentials = "Invalid credentials"
	errDuplicateEmail     = "User already exists with this email"
	errTaskNotFound       = "Task not found"
)

// respondError writes the uniform failure envelope. Messages are always
// human-readable and never carry internal diagnostics.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// inputMessage extracts the user-facing part of an ErrInvalidInput error.
func inputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	if msg == "" || msg == domain.ErrInvalidInput.Error() {
		return "Invalid input"
	}
	return msg
}
