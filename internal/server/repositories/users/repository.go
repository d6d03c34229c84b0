package users

import (
	"context"

	"github.com/appp2p/authvault/internal/server/models"
)

// Repository is the credential store contract: lookup, existence check,
// creation and password replacement, all keyed by email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
}
