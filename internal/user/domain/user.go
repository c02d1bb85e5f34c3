package domain

import "time"

// User is an account record. Email and username are unique across users.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Active       bool
	Admin        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
