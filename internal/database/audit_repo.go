package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"medportal-backend/internal/models"
)

// AuditRepo handles audit log database operations
type AuditRepo struct{}

// NewAuditRepo creates a new audit repository
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

// Create creates a new audit log entry
func (r *AuditRepo) Create(entry *models.AuditLog) error {
	result, err := DB.Exec(`
		INSERT INTO audit_logs (timestamp, patient_id, email, action, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Timestamp, entry.PatientID, entry.Email, entry.Action, entry.Details, entry.IPAddress)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// Log records an account event with the current timestamp
func (r *AuditRepo) Log(patientID int64, email, action string, details interface{}, ipAddress string) error {
	var detailsJSON string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(b)
		}
	}

	return r.Create(&models.AuditLog{
		Timestamp: time.Now(),
		PatientID: patientID,
		Email:     email,
		Action:    action,
		Details:   detailsJSON,
		IPAddress: ipAddress,
	})
}

// List retrieves audit logs matching the filter, newest first, along
// with the total match count for pagination.
func (r *AuditRepo) List(filter models.AuditFilter) ([]*models.AuditLog, int, error) {
	baseQuery := "FROM audit_logs WHERE 1=1"
	args := []interface{}{}

	if filter.PatientID != nil {
		baseQuery += " AND patient_id = ?"
		args = append(args, *filter.PatientID)
	}
	if filter.Action != "" {
		baseQuery += " AND action = ?"
		args = append(args, filter.Action)
	}

	var total int
	if err := DB.QueryRow("SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, timestamp, patient_id, email, action, details, ip_address " + baseQuery
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var patientID sql.NullInt64
		var email, details, ipAddress sql.NullString

		err := rows.Scan(&entry.ID, &entry.Timestamp, &patientID, &email,
			&entry.Action, &details, &ipAddress)
		if err != nil {
			return nil, 0, err
		}

		if patientID.Valid {
			entry.PatientID = patientID.Int64
		}
		if email.Valid {
			entry.Email = email.String
		}
		if details.Valid {
			entry.Details = details.String
		}
		if ipAddress.Valid {
			entry.IPAddress = ipAddress.String
		}

		logs = append(logs, entry)
	}

	return logs, total, nil
}

// DeleteOlderThan deletes audit logs older than the specified time
func (r *AuditRepo) DeleteOlderThan(t time.Time) (int64, error) {
	result, err := DB.Exec("DELETE FROM audit_logs WHERE timestamp < ?", t)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
