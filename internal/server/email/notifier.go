// Package email sends account-lifecycle mail: a welcome note on registration
// and the password-reset link.
package email

import "context"

// Notifier is the outbound mail contract used by the auth service.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, to string, firstName string) error
	SendPasswordResetEmail(ctx context.Context, to string, token string) error
}
