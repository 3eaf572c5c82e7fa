package models

import "time"

// User is a row of the users table. PasswordHash is never plaintext and never
// leaves the server.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}
