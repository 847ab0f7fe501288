package models

import "time"

// Audit actions recorded by the portal.
const (
	AuditActionRegister       = "patient.register"
	AuditActionLogin          = "patient.login"
	AuditActionLogout         = "patient.logout"
	AuditActionProfileUpdate  = "patient.profile_update"
	AuditActionPasswordChange = "patient.password_change"
)

// AuditLog represents one recorded account event.
type AuditLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	PatientID int64     `json:"patient_id"`
	Email     string    `json:"email"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// AuditFilter narrows audit log queries.
type AuditFilter struct {
	PatientID *int64
	Action    string
	Limit     int
	Offset    int
}
