package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"medportal-backend/internal/models"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// PatientRepo handles patient database operations
type PatientRepo struct{}

// NewPatientRepo creates a new patient repository
func NewPatientRepo() *PatientRepo {
	return &PatientRepo{}
}

// Create inserts a new patient record. A fresh medical record number is
// assigned when none is set. The email uniqueness constraint is the
// final authority on duplicates; a violation maps to ErrEmailTaken.
func (r *PatientRepo) Create(patient *models.Patient) error {
	if patient.MRN == "" {
		patient.MRN = uuid.NewString()
	}

	result, err := DB.Exec(`
		INSERT INTO patients (mrn, first_name, last_name, email, phone, date_of_birth,
			gender, address, emergency_contact_name, emergency_contact_phone,
			password_hash, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, patient.MRN, patient.FirstName, patient.LastName, patient.Email, patient.Phone,
		patient.DateOfBirth, patient.Gender, patient.Address,
		patient.EmergencyContactName, patient.EmergencyContactPhone,
		patient.PasswordHash, patient.IsActive)
	if err != nil {
		if isUniqueViolation(err, "patients.email") {
			return ErrEmailTaken
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	patient.ID = id

	return nil
}

const patientColumns = `id, mrn, first_name, last_name, email, phone, date_of_birth,
	gender, address, emergency_contact_name, emergency_contact_phone,
	password_hash, is_active, created_at, updated_at, last_login`

// GetByID retrieves a patient by ID
func (r *PatientRepo) GetByID(id int64) (*models.Patient, error) {
	row := DB.QueryRow(`SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	return scanPatient(row)
}

// GetByEmail retrieves a patient by email. Emails are stored lower-cased.
func (r *PatientRepo) GetByEmail(email string) (*models.Patient, error) {
	row := DB.QueryRow(`SELECT `+patientColumns+` FROM patients WHERE email = ?`, email)
	return scanPatient(row)
}

// ExistsByEmail checks if a patient with the given email exists
func (r *PatientRepo) ExistsByEmail(email string) (bool, error) {
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM patients WHERE email = ?", email).Scan(&count)
	return count > 0, err
}

// UpdateProfile updates the editable profile fields
func (r *PatientRepo) UpdateProfile(patient *models.Patient) error {
	patient.UpdatedAt = time.Now()

	result, err := DB.Exec(`
		UPDATE patients SET
			first_name = ?,
			last_name = ?,
			phone = ?,
			address = ?,
			emergency_contact_name = ?,
			emergency_contact_phone = ?,
			updated_at = ?
		WHERE id = ?
	`, patient.FirstName, patient.LastName, patient.Phone, patient.Address,
		patient.EmergencyContactName, patient.EmergencyContactPhone,
		patient.UpdatedAt, patient.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPatientNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *PatientRepo) UpdatePassword(id int64, passwordHash string) error {
	result, err := DB.Exec(
		"UPDATE patients SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPatientNotFound
	}

	return nil
}

// UpdateLastLogin updates the patient's last login timestamp
func (r *PatientRepo) UpdateLastLogin(id int64) error {
	_, err := DB.Exec("UPDATE patients SET last_login = ? WHERE id = ?", time.Now(), id)
	return err
}

// SetActive toggles the account active flag
func (r *PatientRepo) SetActive(id int64, active bool) error {
	result, err := DB.Exec(
		"UPDATE patients SET is_active = ?, updated_at = ? WHERE id = ?",
		active, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPatientNotFound
	}

	return nil
}

// Count returns the total number of patients
func (r *PatientRepo) Count() (int, error) {
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM patients").Scan(&count)
	return count, err
}

// scanner abstracts *sql.Row and *sql.Rows for scanPatient
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(s scanner) (*models.Patient, error) {
	patient := &models.Patient{}
	var lastLogin sql.NullTime

	err := s.Scan(
		&patient.ID, &patient.MRN, &patient.FirstName, &patient.LastName,
		&patient.Email, &patient.Phone, &patient.DateOfBirth,
		&patient.Gender, &patient.Address,
		&patient.EmergencyContactName, &patient.EmergencyContactPhone,
		&patient.PasswordHash, &patient.IsActive,
		&patient.CreatedAt, &patient.UpdatedAt, &lastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		patient.LastLogin = lastLogin.Time
	}

	return patient, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure on the given column.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
