package domain

import "time"

// User is a registered account. Only the password hash is ever stored.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}
