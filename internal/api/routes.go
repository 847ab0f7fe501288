package api

import (
	"github.com/labstack/echo/v4"

	"medportal-backend/internal/auth"
)

var (
	authService  *auth.Service
	loginLimiter *auth.LoginLimiter
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api *echo.Group, authSvc *auth.Service) {
	authService = authSvc
	loginLimiter = auth.DefaultLoginLimiter()

	// Health check (public)
	api.GET("/health", healthCheck)

	// Auth routes (public entry points)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", registerHandler)
	authGroup.POST("/login", loginHandler, loginLimiter.Middleware())
	authGroup.POST("/logout", logoutHandler)
	authGroup.GET("/me", currentPatientHandler)

	// Session management (protected)
	authProtected := authGroup.Group("")
	authProtected.Use(auth.RequireAuth(authSvc))
	authProtected.GET("/sessions", listSessionsHandler)
	authProtected.DELETE("/sessions/:id", revokeSessionHandler)

	// Profile routes (protected)
	profile := api.Group("/profile")
	profile.Use(auth.RequireAuth(authSvc))
	profile.GET("", getProfileHandler)
	profile.PUT("", updateProfileHandler)
	profile.POST("/password", changePasswordHandler)

	// Account event history (protected)
	events := api.Group("/events")
	events.Use(auth.RequireAuth(authSvc))
	events.GET("", listAccountEventsHandler)
}
