package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/metrics"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/middleware"
	"github.com/ErlanBelekov/taskboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input usecase.UpdateProfileInput) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	tokenTTL    time.Duration
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		tokenTTL:    tokenTTL,
		logger:      logger.With("component", "auth_handler"),
	}
}

// userResponse is the client-facing user representation. There is no field
// for the password hash, so it can never be serialized.
type userResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Avatar     string      `json:"avatar,omitempty"`
	IsVerified bool        `json:"isVerified"`
	LastLogin  *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLoginAt,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Please provide name, email and password")
		return
	}

	user, token, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, inputMessage(err))
		case errors.Is(err, domain.ErrDuplicateEmail):
			respondError(c, http.StatusBadRequest, errDuplicateEmail)
		default:
			h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer)
		}
		return
	}

	h.setTokenCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   token,
		"data":    newUserResponse(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	user, token, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, inputMessage(err))
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			respondError(c, http.StatusUnauthorized, errInvalidCredentials)
		default:
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer)
		}
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"data":    newUserResponse(user),
	})
}

// GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user := middleware.UserFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    newUserResponse(user),
	})
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.UserFromContext(c)
	updated, err := h.authUsecase.UpdateProfile(c.Request.Context(), user.ID, usecase.UpdateProfileInput{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, inputMessage(err))
		case errors.Is(err, domain.ErrDuplicateEmail):
			respondError(c, http.StatusBadRequest, "Email is already taken")
		default:
			h.logger.ErrorContext(c.Request.Context(), "update profile", "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"data":    newUserResponse(updated),
	})
}

// POST /auth/logout
//
// Tokens are stateless and cannot be revoked server-side before expiry;
// logout only expires the cookie on the client.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.TokenCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)
}
