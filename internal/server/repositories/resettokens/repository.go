package resettokens

import (
	"context"
	"time"

	"github.com/appp2p/authvault/internal/server/models"
)

// Repository persists single-use password-reset tokens.
//
// MarkUsed is the conditional update backing exactly-once consumption: it
// flips used=false→true only while the token is unconsumed and unexpired,
// so exactly one of any number of concurrent consume attempts wins.
type Repository interface {
	Create(ctx context.Context, email string, token string, validity time.Duration) (*models.ResetToken, error)
	Find(ctx context.Context, token string) (*models.ResetToken, error)
	DeleteByEmail(ctx context.Context, email string) error
	MarkUsed(ctx context.Context, token string, now time.Time) (string, error)
}
