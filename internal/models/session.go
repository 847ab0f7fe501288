package models

import "time"

// Session represents an authenticated patient session. Sessions expire
// on inactivity: LastActivity slides forward on every authenticated
// request and a session idle past the configured timeout is cleared.
type Session struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient_id"`
	PatientName  string    `json:"patient_name"`
	TokenHash    string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the response after successful login.
type LoginResponse struct {
	Patient *Patient `json:"patient"`
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}
