package auth

import (
	"errors"
	"strings"
	"time"

	"medportal-backend/internal/database"
	"medportal-backend/internal/models"
	"medportal-backend/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrAccountNotFound    = errors.New("account not found")
)

// DefaultSessionTimeout applies when the settings table has no usable
// session.timeout_seconds value.
const DefaultSessionTimeout = 1800 * time.Second

// Service handles registration, authentication, and session logic
type Service struct {
	patientRepo  *database.PatientRepo
	sessionRepo  *database.SessionRepo
	settingsRepo *database.SettingsRepo
	auditRepo    *database.AuditRepo
}

// NewService creates a new auth service
func NewService() *Service {
	return &Service{
		patientRepo:  database.NewPatientRepo(),
		sessionRepo:  database.NewSessionRepo(),
		settingsRepo: database.NewSettingsRepo(),
		auditRepo:    database.NewAuditRepo(),
	}
}

// Register validates a registration submission and creates the patient
// record. Validation failures come back as an ordered message list, not
// an error; a duplicate email surfaces as database.ErrEmailTaken.
func (s *Service) Register(data map[string]string, ipAddress string) (*models.Patient, []string, error) {
	form := validation.NewRegistrationForm(data)
	if !form.Validate() {
		return nil, form.Errors(), nil
	}

	email := strings.ToLower(strings.TrimSpace(data["email"]))

	// Friendly pre-check; the UNIQUE index on patients.email is the
	// authority if a concurrent registration slips past it.
	exists, err := s.patientRepo.ExistsByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, database.ErrEmailTaken
	}

	// Already validated by the form
	dateOfBirth, err := time.Parse("2006-01-02", data["date_of_birth"])
	if err != nil {
		return nil, []string{"Please enter a valid date in YYYY-MM-DD format"}, nil
	}

	passwordHash, err := HashPassword(data["password"])
	if err != nil {
		return nil, nil, err
	}

	patient := &models.Patient{
		FirstName:             strings.TrimSpace(data["first_name"]),
		LastName:              strings.TrimSpace(data["last_name"]),
		Email:                 email,
		Phone:                 strings.TrimSpace(data["phone"]),
		DateOfBirth:           dateOfBirth,
		Gender:                strings.ToLower(data["gender"]),
		Address:               strings.TrimSpace(data["address"]),
		EmergencyContactName:  strings.TrimSpace(data["emergency_contact_name"]),
		EmergencyContactPhone: strings.TrimSpace(data["emergency_contact_phone"]),
		PasswordHash:          passwordHash,
		IsActive:              true,
	}

	if err := s.patientRepo.Create(patient); err != nil {
		return nil, nil, err
	}

	s.auditRepo.Log(patient.ID, patient.Email, models.AuditActionRegister, nil, ipAddress)

	return patient, nil, nil
}

// Login validates a login submission and authenticates the patient.
// Form failures come back as a message list; a credential mismatch and
// an unknown email both map to ErrInvalidCredentials so callers cannot
// tell which check failed.
func (s *Service) Login(req models.LoginRequest, ipAddress, userAgent string) (*models.LoginResponse, []string, error) {
	form := validation.NewLoginForm(map[string]string{
		"email":    req.Email,
		"password": req.Password,
	})
	if !form.Validate() {
		return nil, form.Errors(), nil
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	patient, err := s.patientRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrPatientNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	valid, err := VerifyPassword(req.Password, patient.PasswordHash)
	if err != nil {
		return nil, nil, err
	}
	if !valid {
		return nil, nil, ErrInvalidCredentials
	}

	if !patient.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	// Enforce the per-patient session cap by evicting the oldest
	maxSessions, err := s.settingsRepo.GetInt(database.SettingSessionMaxPerPatient)
	if err != nil || maxSessions <= 0 {
		maxSessions = 5
	}
	count, _ := s.sessionRepo.CountByPatientID(patient.ID)
	if count >= maxSessions {
		sessions, _ := s.sessionRepo.GetByPatientID(patient.ID)
		if len(sessions) > 0 {
			s.sessionRepo.Delete(sessions[len(sessions)-1].ID)
		}
	}

	token, session, err := s.sessionRepo.Create(patient.ID, patient.FullName(), ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	s.patientRepo.UpdateLastLogin(patient.ID)
	s.auditRepo.Log(patient.ID, patient.Email, models.AuditActionLogin, nil, ipAddress)

	return &models.LoginResponse{
		Patient: patient,
		Token:   token,
		Session: session,
	}, nil, nil
}

// ValidateSession resolves a session token and refreshes its activity
// window. Idle sessions and sessions whose patient record has vanished
// are cleared before the error is returned.
func (s *Service) ValidateSession(token string) (*models.Patient, *models.Session, error) {
	session, err := s.sessionRepo.GetByToken(token, s.SessionTimeout())
	if err != nil {
		return nil, nil, err
	}

	patient, err := s.patientRepo.GetByID(session.PatientID)
	if err != nil {
		if errors.Is(err, database.ErrPatientNotFound) {
			// Consistency fault: a session pointing at a deleted record
			s.sessionRepo.Delete(session.ID)
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	if !patient.IsActive {
		s.sessionRepo.Delete(session.ID)
		return nil, nil, ErrAccountDisabled
	}

	if err := s.sessionRepo.Touch(session.ID); err != nil {
		return nil, nil, err
	}
	session.LastActivity = time.Now()

	return patient, session, nil
}

// Logout invalidates a session
func (s *Service) Logout(token string) error {
	patient, session, err := s.ValidateSession(token)
	if err == nil {
		s.auditRepo.Log(patient.ID, patient.Email, models.AuditActionLogout, nil, session.IPAddress)
	}
	return s.sessionRepo.DeleteByToken(token)
}

// ChangePassword verifies the current password and applies a new one.
// The returned message is a user-facing rejection; it is empty on
// success. Only store faults come back as errors.
func (s *Service) ChangePassword(patient *models.Patient, req models.ChangePasswordRequest, ipAddress string) (string, error) {
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return "All password fields are required.", nil
	}

	valid, err := VerifyPassword(req.CurrentPassword, patient.PasswordHash)
	if err != nil {
		return "", err
	}
	if !valid {
		return "Current password is incorrect.", nil
	}

	if req.NewPassword != req.ConfirmPassword {
		return "New passwords do not match.", nil
	}

	if msg := validation.Password(req.NewPassword); msg != "" {
		return msg, nil
	}

	passwordHash, err := HashPassword(req.NewPassword)
	if err != nil {
		return "", err
	}
	if err := s.patientRepo.UpdatePassword(patient.ID, passwordHash); err != nil {
		return "", err
	}
	patient.PasswordHash = passwordHash

	s.auditRepo.Log(patient.ID, patient.Email, models.AuditActionPasswordChange, nil, ipAddress)

	return "", nil
}

// UpdateProfile applies profile edits. Email and password are excluded;
// they have dedicated flows.
func (s *Service) UpdateProfile(patient *models.Patient, req models.UpdateProfileRequest, ipAddress string) error {
	patient.FirstName = strings.TrimSpace(req.FirstName)
	patient.LastName = strings.TrimSpace(req.LastName)
	patient.Phone = strings.TrimSpace(req.Phone)
	patient.Address = strings.TrimSpace(req.Address)
	patient.EmergencyContactName = strings.TrimSpace(req.EmergencyContactName)
	patient.EmergencyContactPhone = strings.TrimSpace(req.EmergencyContactPhone)

	if err := s.patientRepo.UpdateProfile(patient); err != nil {
		return err
	}

	s.auditRepo.Log(patient.ID, patient.Email, models.AuditActionProfileUpdate, nil, ipAddress)

	return nil
}

// SessionTimeout returns the configured inactivity timeout
func (s *Service) SessionTimeout() time.Duration {
	seconds, err := s.settingsRepo.GetInt(database.SettingSessionTimeoutSeconds)
	if err != nil || seconds <= 0 {
		return DefaultSessionTimeout
	}
	return time.Duration(seconds) * time.Second
}

// GetPatientSessions returns all sessions for a patient
func (s *Service) GetPatientSessions(patientID int64) ([]*models.Session, error) {
	return s.sessionRepo.GetByPatientID(patientID)
}

// RevokeSession revokes a specific session
func (s *Service) RevokeSession(sessionID int64) error {
	return s.sessionRepo.Delete(sessionID)
}

// ListAccountEvents returns the audit trail for one patient
func (s *Service) ListAccountEvents(patientID int64, limit, offset int) ([]*models.AuditLog, int, error) {
	return s.auditRepo.List(models.AuditFilter{
		PatientID: &patientID,
		Limit:     limit,
		Offset:    offset,
	})
}
