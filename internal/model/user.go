package model

import "time"

// User represents a registered account.
// This is a pure domain model with no database-specific dependencies or tags.
// The password hash is never serialized to API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
