package models

import "time"

// LoanShare grants a user read-only access to another user's loan
type LoanShare struct {
	LoanID    int64     `json:"loan_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
