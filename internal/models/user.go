package models

import "time"

// User represents a registered user in the system
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}
