package database

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"medportal-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionRepo handles session database operations. Expiry is based on
// inactivity: a session whose last_activity is older than the timeout is
// treated as expired and removed on lookup.
type SessionRepo struct{}

// NewSessionRepo creates a new session repository
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{}
}

// Create creates a new session and returns the plain token
func (r *SessionRepo) Create(patientID int64, patientName, ipAddress, userAgent string) (string, *models.Session, error) {
	// Generate random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, err
	}
	token := hex.EncodeToString(tokenBytes)

	// Hash the token for storage
	tokenHash := hashToken(token)

	now := time.Now()
	session := &models.Session{
		PatientID:    patientID,
		PatientName:  patientName,
		TokenHash:    tokenHash,
		CreatedAt:    now,
		LastActivity: now,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}

	result, err := DB.Exec(`
		INSERT INTO sessions (patient_id, patient_name, token_hash, created_at, last_activity, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.PatientID, session.PatientName, session.TokenHash,
		session.CreatedAt, session.LastActivity, session.IPAddress, session.UserAgent)
	if err != nil {
		return "", nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, err
	}
	session.ID = id

	return token, session, nil
}

// GetByToken retrieves a session by its plain token. A session idle
// longer than timeout is deleted and reported as expired.
func (r *SessionRepo) GetByToken(token string, timeout time.Duration) (*models.Session, error) {
	session := &models.Session{}

	err := DB.QueryRow(`
		SELECT id, patient_id, patient_name, token_hash, created_at, last_activity, ip_address, user_agent
		FROM sessions WHERE token_hash = ?
	`, hashToken(token)).Scan(
		&session.ID, &session.PatientID, &session.PatientName, &session.TokenHash,
		&session.CreatedAt, &session.LastActivity, &session.IPAddress, &session.UserAgent,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	// Inactivity check
	if time.Since(session.LastActivity) > timeout {
		r.Delete(session.ID)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Touch slides the inactivity window by setting last_activity to now
func (r *SessionRepo) Touch(id int64) error {
	result, err := DB.Exec("UPDATE sessions SET last_activity = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// GetByPatientID retrieves all sessions for a patient, newest first
func (r *SessionRepo) GetByPatientID(patientID int64) ([]*models.Session, error) {
	rows, err := DB.Query(`
		SELECT id, patient_id, patient_name, token_hash, created_at, last_activity, ip_address, user_agent
		FROM sessions WHERE patient_id = ? ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		err := rows.Scan(
			&session.ID, &session.PatientID, &session.PatientName, &session.TokenHash,
			&session.CreatedAt, &session.LastActivity, &session.IPAddress, &session.UserAgent,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// Delete deletes a session by ID
func (r *SessionRepo) Delete(id int64) error {
	_, err := DB.Exec("DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteByToken deletes a session by its plain token
func (r *SessionRepo) DeleteByToken(token string) error {
	result, err := DB.Exec("DELETE FROM sessions WHERE token_hash = ?", hashToken(token))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteAllForPatient deletes all sessions for a patient
func (r *SessionRepo) DeleteAllForPatient(patientID int64) error {
	_, err := DB.Exec("DELETE FROM sessions WHERE patient_id = ?", patientID)
	return err
}

// DeleteIdle removes all sessions idle longer than timeout
func (r *SessionRepo) DeleteIdle(timeout time.Duration) (int64, error) {
	result, err := DB.Exec("DELETE FROM sessions WHERE last_activity < ?", time.Now().Add(-timeout))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountByPatientID returns the number of sessions for a patient
func (r *SessionRepo) CountByPatientID(patientID int64) (int, error) {
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM sessions WHERE patient_id = ?", patientID).Scan(&count)
	return count, err
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
