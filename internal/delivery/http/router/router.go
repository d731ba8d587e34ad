// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"drivehub/internal/delivery/http/middleware"
	"drivehub/internal/delivery/http/router/handler"
	"drivehub/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	profileHandler *handler.ProfileHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		profileHandler: params.ProfileHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.GET("/google", r.authHandler.GoogleLogin)
		authGroup.GET("/google/callback", r.authHandler.GoogleCallback)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/check", r.authHandler.Check)
	}

	// Instructor profile routes. Gates compose left-to-right and the first
	// failure short-circuits the chain.
	profileGroup := e.Group("/profiles")
	profileGroup.Use(r.authMiddleware.Authenticate)
	{
		profileGroup.GET("/me", r.profileHandler.GetOwnProfile,
			r.authMiddleware.RequireRole(entity.RoleInstructor))
		profileGroup.GET("/:id", r.profileHandler.GetProfile,
			r.authMiddleware.RequireRole(entity.RoleInstructor),
			r.authMiddleware.RequireProfileOwner("id"))
		profileGroup.PUT("/:id", r.profileHandler.UpdateProfile,
			r.authMiddleware.RequireRole(entity.RoleInstructor),
			r.authMiddleware.RequireProfileOwner("id"))
	}
}
