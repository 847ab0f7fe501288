package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"medportal-backend/internal/database"
	"medportal-backend/internal/models"
)

// Context keys for storing patient data
const (
	ContextKeyPatient = "patient"
	ContextKeySession = "session"
)

// LoginPath is the redirect hint sent with every guard rejection. The
// guard never performs the redirect itself; the client decides.
const LoginPath = "/login"

// RequireAuth middleware gates protected routes. It resolves the
// session token, refreshes the inactivity window, and stores the
// patient and session in the request context. Rejections carry a
// redirect hint alongside a message distinguishing missing, expired,
// and orphaned sessions.
func RequireAuth(authSvc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token == "" {
				return unauthorized(c, "Please log in to access this page.")
			}

			patient, session, err := authSvc.ValidateSession(token)
			if err != nil {
				switch {
				case errors.Is(err, database.ErrSessionExpired):
					return unauthorized(c, "Your session has expired. Please log in again.")
				case errors.Is(err, ErrAccountNotFound):
					return unauthorized(c, "Account not found. Please log in again.")
				case errors.Is(err, ErrAccountDisabled):
					return unauthorized(c, "Your account has been deactivated. Please contact support.")
				case errors.Is(err, database.ErrSessionNotFound):
					return unauthorized(c, "Please log in to access this page.")
				default:
					c.Logger().Error("session validation error: ", err)
					return c.JSON(http.StatusInternalServerError, map[string]string{
						"error": "An error occurred. Please try again.",
					})
				}
			}

			c.Set(ContextKeyPatient, patient)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":    message,
		"redirect": LoginPath,
	})
}

// TokenFromRequest extracts the session token from the request
func TokenFromRequest(c echo.Context) string {
	// Try Authorization header first (Bearer token)
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Try cookie
	cookie, err := c.Cookie("session_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

// PatientFromContext retrieves the authenticated patient from the context
func PatientFromContext(c echo.Context) *models.Patient {
	patient, ok := c.Get(ContextKeyPatient).(*models.Patient)
	if !ok {
		return nil
	}
	return patient
}

// SessionFromContext retrieves the current session from the context
func SessionFromContext(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
