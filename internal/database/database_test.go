package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"medportal-backend/internal/models"
)

// openTestDB points the global connection at a throwaway database.
func openTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}))
	t.Cleanup(func() { Close() })
}

func testPatient(email string) *models.Patient {
	return &models.Patient{
		FirstName:             "Alice",
		LastName:              "Smith",
		Email:                 email,
		Phone:                 "555-123-4567",
		DateOfBirth:           time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC),
		Gender:                "female",
		Address:               "123 Main Street, Springfield",
		EmergencyContactName:  "Bob Smith",
		EmergencyContactPhone: "555-987-6543",
		PasswordHash:          "$2a$10$notarealhashnotarealhashnotarealhashnotarealhash",
		IsActive:              true,
	}
}

func TestMigrationsSeedDefaults(t *testing.T) {
	openTestDB(t)

	settings := NewSettingsRepo()

	timeout, err := settings.GetInt(SettingSessionTimeoutSeconds)
	require.NoError(t, err)
	require.Equal(t, 1800, timeout)

	maxSessions, err := settings.GetInt(SettingSessionMaxPerPatient)
	require.NoError(t, err)
	require.Equal(t, 5, maxSessions)
}
