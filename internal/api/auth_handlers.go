package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"medportal-backend/internal/auth"
	"medportal-backend/internal/database"
	"medportal-backend/internal/models"
)

// registerHandler handles POST /api/auth/register
func registerHandler(c echo.Context) error {
	var data map[string]string
	if err := c.Bind(&data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	patient, formErrors, err := authService.Register(data, c.RealIP())
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "An account with this email already exists. Please use a different email or log in.",
			})
		}
		c.Logger().Error("registration error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred during registration. Please try again.",
		})
	}
	if len(formErrors) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"errors": formErrors,
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Registration successful! Please log in with your credentials.",
		"patient": patient,
	})
}

// loginHandler handles POST /api/auth/login
func loginHandler(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	resp, formErrors, err := authService.Login(req, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Invalid email or password. Please try again.",
			})
		case errors.Is(err, auth.ErrAccountDisabled):
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Your account has been deactivated. Please contact support.",
			})
		default:
			c.Logger().Error("login error: ", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "An error occurred. Please try again.",
			})
		}
	}
	if len(formErrors) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"errors": formErrors,
		})
	}

	loginLimiter.RecordSuccess(c.RealIP())

	// Set token in cookie (HttpOnly for security)
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    resp.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request().TLS != nil, // Secure if HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(authService.SessionTimeout().Seconds()),
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Welcome back, " + resp.Patient.FirstName + "!",
		"patient": resp.Patient,
		"token":   resp.Token,
	})
}

// logoutHandler handles POST /api/auth/logout
func logoutHandler(c echo.Context) error {
	token := auth.TokenFromRequest(c)
	if token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "no session token",
		})
	}

	if err := authService.Logout(token); err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			// Session already gone, that's fine
		} else {
			c.Logger().Error("logout error: ", err)
		}
	}

	// Clear cookie
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "You have been logged out successfully.",
	})
}

// currentPatientHandler handles GET /api/auth/me
func currentPatientHandler(c echo.Context) error {
	token := auth.TokenFromRequest(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	patient, session, err := authService.ValidateSession(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "session expired or invalid",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient": patient,
		"session": session,
	})
}

// listSessionsHandler handles GET /api/auth/sessions
func listSessionsHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	sessions, err := authService.GetPatientSessions(patient.ID)
	if err != nil {
		c.Logger().Error("list sessions error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list sessions",
		})
	}

	return c.JSON(http.StatusOK, sessions)
}

// revokeSessionHandler handles DELETE /api/auth/sessions/:id
func revokeSessionHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid session ID",
		})
	}

	// Patients may only revoke their own sessions
	sessions, _ := authService.GetPatientSessions(patient.ID)
	found := false
	for _, s := range sessions {
		if s.ID == sessionID {
			found = true
			break
		}
	}
	if !found {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "cannot revoke another patient's session",
		})
	}

	if err := authService.RevokeSession(sessionID); err != nil {
		c.Logger().Error("revoke session error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to revoke session",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "session revoked",
	})
}
