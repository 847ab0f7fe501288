package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"medportal-backend/internal/auth"
	"medportal-backend/internal/models"
)

// getProfileHandler handles GET /api/profile
func getProfileHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	return c.JSON(http.StatusOK, patient)
}

// updateProfileHandler handles PUT /api/profile
func updateProfileHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if err := authService.UpdateProfile(patient, req, c.RealIP()); err != nil {
		c.Logger().Error("profile update error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred while updating your profile. Please try again.",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully!",
		"patient": patient,
	})
}

// changePasswordHandler handles POST /api/profile/password
func changePasswordHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	msg, err := authService.ChangePassword(patient, req, c.RealIP())
	if err != nil {
		c.Logger().Error("password change error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred while changing your password. Please try again.",
		})
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": msg,
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password changed successfully!",
	})
}

// listAccountEventsHandler handles GET /api/events
func listAccountEventsHandler(c echo.Context) error {
	patient := auth.PatientFromContext(c)
	if patient == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "not authenticated",
		})
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	events, total, err := authService.ListAccountEvents(patient.ID, limit, offset)
	if err != nil {
		c.Logger().Error("list events error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list account events",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}
