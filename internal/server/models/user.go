// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account identified by its (lower-cased, unique) email address.
// PasswordHash is opaque to everything but the hash package.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}
