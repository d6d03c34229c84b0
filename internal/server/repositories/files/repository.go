package files

import (
	"context"

	"github.com/appp2p/authvault/internal/server/models"
)

// Repository indexes file metadata. Listing is always newest-first; the
// fileType argument of ListByOwner filters by classification when non-empty.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	ListByOwner(ctx context.Context, ownerEmail string, fileType string) ([]*models.File, error)
	UpdateOriginalName(ctx context.Context, id string, newName string) error
	Delete(ctx context.Context, id string) error
}
