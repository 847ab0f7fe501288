package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medportal-backend/internal/database"
	"medportal-backend/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	require.NoError(t, database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")}))
	t.Cleanup(func() { database.Close() })
	return NewService()
}

func validRegistration() map[string]string {
	return map[string]string{
		"first_name":              "Alice",
		"last_name":               "Smith",
		"email":                   "Alice@Example.com",
		"phone":                   "555-123-4567",
		"date_of_birth":           "1990-03-15",
		"gender":                  "female",
		"address":                 "123 Main Street, Springfield",
		"emergency_contact_name":  "Bob Smith",
		"emergency_contact_phone": "555-987-6543",
		"password":                "ValidPass1!",
		"confirm_password":        "ValidPass1!",
	}
}

func registerTestPatient(t *testing.T, svc *Service) *models.Patient {
	t.Helper()
	patient, formErrors, err := svc.Register(validRegistration(), "127.0.0.1")
	require.NoError(t, err)
	require.Empty(t, formErrors)
	require.NotNil(t, patient)
	return patient
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	patient := registerTestPatient(t, svc)

	assert.Equal(t, "alice@example.com", patient.Email, "email stored lower-cased")
	assert.Equal(t, "Alice Smith", patient.FullName())
	assert.NotEmpty(t, patient.MRN)
	assert.True(t, patient.IsActive)
	assert.NotEqual(t, "ValidPass1!", patient.PasswordHash)
}

func TestRegisterValidationErrors(t *testing.T) {
	svc := newTestService(t)

	data := validRegistration()
	data["email"] = "not-an-email"
	data["confirm_password"] = "Mismatch1!"

	patient, formErrors, err := svc.Register(data, "127.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, patient)
	assert.Equal(t, []string{
		"Please enter a valid email address",
		"Passwords do not match",
	}, formErrors)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	registerTestPatient(t, svc)

	_, formErrors, err := svc.Register(validRegistration(), "127.0.0.1")
	assert.Empty(t, formErrors)
	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)

	resp, formErrors, err := svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: "ValidPass1!",
	}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.Empty(t, formErrors)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Alice Smith", resp.Session.PatientName)
	assert.WithinDuration(t, time.Now(), resp.Session.LastActivity, 5*time.Second)

	updated, err := database.NewPatientRepo().GetByID(resp.Patient.ID)
	require.NoError(t, err)
	assert.False(t, updated.LastLogin.IsZero(), "last login recorded")
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)

	_, formErrors, err := svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: "WrongPass1!",
	}, "127.0.0.1", "test-agent")
	assert.Empty(t, formErrors)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)

	// An unknown email and a wrong password must be indistinguishable
	_, _, err := svc.Login(models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "ValidPass1!",
	}, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)

	require.NoError(t, database.NewPatientRepo().SetActive(patient.ID, false))

	_, _, err := svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: "ValidPass1!",
	}, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginFormErrors(t *testing.T) {
	svc := newTestService(t)

	_, formErrors, err := svc.Login(models.LoginRequest{}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"Email is required", "Password is required"}, formErrors)
}

func login(t *testing.T, svc *Service) *models.LoginResponse {
	t.Helper()
	resp, formErrors, err := svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: "ValidPass1!",
	}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.Empty(t, formErrors)
	return resp
}

// backdate rewinds a session's last_activity by the given amount.
func backdate(t *testing.T, sessionID int64, by time.Duration) {
	t.Helper()
	_, err := database.DB.Exec("UPDATE sessions SET last_activity = ? WHERE id = ?",
		time.Now().Add(-by), sessionID)
	require.NoError(t, err)
}

func TestValidateSessionRefreshesActivity(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)
	resp := login(t, svc)

	backdate(t, resp.Session.ID, 1799*time.Second)

	patient, session, err := svc.ValidateSession(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Patient.ID, patient.ID)
	assert.WithinDuration(t, time.Now(), session.LastActivity, 5*time.Second)
}

func TestValidateSessionExpiresAfterInactivity(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)
	resp := login(t, svc)

	backdate(t, resp.Session.ID, 1801*time.Second)

	_, _, err := svc.ValidateSession(resp.Token)
	assert.ErrorIs(t, err, database.ErrSessionExpired)

	// The expired session was cleared
	_, _, err = svc.ValidateSession(resp.Token)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestValidateSessionOrphanedPatient(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)
	resp := login(t, svc)

	// Remove the patient row from under the session. Foreign keys are
	// disabled for the surgery so the session row survives to exercise
	// the consistency-fault path.
	database.DB.SetMaxOpenConns(1)
	_, err := database.DB.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = database.DB.Exec("DELETE FROM patients WHERE id = ?", resp.Patient.ID)
	require.NoError(t, err)

	_, _, err = svc.ValidateSession(resp.Token)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// The dangling session was cleared
	_, _, err = svc.ValidateSession(resp.Token)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	svc := newTestService(t)
	registerTestPatient(t, svc)
	resp := login(t, svc)

	require.NoError(t, svc.Logout(resp.Token))

	_, _, err := svc.ValidateSession(resp.Token)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestLoginEvictsOldestSessionAtCap(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)

	for i := 0; i < 6; i++ {
		login(t, svc)
	}

	count, err := database.NewSessionRepo().CountByPatientID(patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)

	msg, err := svc.ChangePassword(patient, models.ChangePasswordRequest{
		CurrentPassword: "ValidPass1!",
		NewPassword:     "NewValid2@",
		ConfirmPassword: "NewValid2@",
	}, "127.0.0.1")
	require.NoError(t, err)
	require.Empty(t, msg)

	_, _, err = svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: "ValidPass1!",
	}, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password no longer valid")

	resp := loginWith(t, svc, "NewValid2@")
	assert.NotEmpty(t, resp.Token)
}

func loginWith(t *testing.T, svc *Service, password string) *models.LoginResponse {
	t.Helper()
	resp, formErrors, err := svc.Login(models.LoginRequest{
		Email:    "alice@example.com",
		Password: password,
	}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.Empty(t, formErrors)
	return resp
}

func TestChangePasswordRejections(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)

	tests := []struct {
		name string
		req  models.ChangePasswordRequest
		want string
	}{
		{
			name: "missing fields",
			req:  models.ChangePasswordRequest{NewPassword: "NewValid2@", ConfirmPassword: "NewValid2@"},
			want: "All password fields are required.",
		},
		{
			name: "wrong current password",
			req:  models.ChangePasswordRequest{CurrentPassword: "WrongPass1!", NewPassword: "NewValid2@", ConfirmPassword: "NewValid2@"},
			want: "Current password is incorrect.",
		},
		{
			name: "confirmation mismatch",
			req:  models.ChangePasswordRequest{CurrentPassword: "ValidPass1!", NewPassword: "NewValid2@", ConfirmPassword: "Other3#aa"},
			want: "New passwords do not match.",
		},
		{
			name: "weak new password",
			req:  models.ChangePasswordRequest{CurrentPassword: "ValidPass1!", NewPassword: "weakpass", ConfirmPassword: "weakpass"},
			want: "Password must contain at least one uppercase letter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := svc.ChangePassword(patient, tt.req, "127.0.0.1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)

	err := svc.UpdateProfile(patient, models.UpdateProfileRequest{
		FirstName:             "  Alice  ",
		LastName:              "Jones",
		Phone:                 "555-000-1111",
		Address:               "456 Oak Avenue, Springfield",
		EmergencyContactName:  "Carol Jones",
		EmergencyContactPhone: "555-222-3333",
	}, "127.0.0.1")
	require.NoError(t, err)

	updated, err := database.NewPatientRepo().GetByID(patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName, "fields are trimmed")
	assert.Equal(t, "Alice Jones", updated.FullName())
	assert.Equal(t, "456 Oak Avenue, Springfield", updated.Address)
}

func TestAuditTrail(t *testing.T) {
	svc := newTestService(t)
	patient := registerTestPatient(t, svc)
	resp := login(t, svc)
	require.NoError(t, svc.Logout(resp.Token))

	events, total, err := svc.ListAccountEvents(patient.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total)

	// Newest first
	actions := []string{events[0].Action, events[1].Action, events[2].Action}
	assert.Contains(t, actions, models.AuditActionRegister)
	assert.Contains(t, actions, models.AuditActionLogin)
	assert.Contains(t, actions, models.AuditActionLogout)
}
