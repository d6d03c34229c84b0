package models

import "time"

// ResetToken is a single-use, time-bounded password-reset token. The token
// string is a random opaque identifier delivered to the user out-of-band;
// Used flips false→true exactly once, on consumption.
type ResetToken struct {
	ID        string
	Token     string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}
