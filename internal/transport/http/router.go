package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/handler"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, taskHandler *handler.TaskHandler, userRepo repository.UserRepository, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(jwtKey)
	currentUser := middleware.CurrentUser(userRepo, logger)

	// Public auth routes
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	// Protected auth routes
	auth := r.Group("/auth", authMW, currentUser)
	auth.GET("/profile", authHandler.GetProfile)
	auth.PUT("/profile", authHandler.UpdateProfile)
	auth.POST("/logout", authHandler.Logout)

	// Protected task routes. The stats route is registered before the
	// parameterized one so "stats" is never taken as a task id.
	tasks := r.Group("/tasks", authMW, currentUser)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/stats", taskHandler.Stats)
	tasks.GET("/:id", taskHandler.GetByID)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	return r
}
