// Package resettokens provides a PostgreSQL-backed repository for the
// single-use password-reset token ledger.
package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/server/models"
)

// PostgresRepository implements the ledger over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new unused reset token for email expiring at now+validity.
func (r *PostgresRepository) Create(ctx context.Context, email string, token string, validity time.Duration) (*models.ResetToken, error) {
	query := `
		INSERT INTO password_reset_tokens (token, email, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	rt := &models.ResetToken{
		Token:     token,
		Email:     email,
		ExpiresAt: time.Now().Add(validity),
	}
	err := r.db.QueryRowContext(ctx, query, rt.Token, rt.Email, rt.ExpiresAt).
		Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// Find returns the ledger row for the given token string, or
// common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	query := `
		SELECT id, token, email, created_at, expires_at, used
		FROM password_reset_tokens
		WHERE token = $1
	`
	rt := &models.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.ID, &rt.Token, &rt.Email, &rt.CreatedAt, &rt.ExpiresAt, &rt.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// DeleteByEmail removes every token issued for email. Issuing a new token
// calls this first, which keeps at most one live token per address.
func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM password_reset_tokens WHERE email = $1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkUsed atomically consumes the token: the row is updated only while it is
// still unused and unexpired, and the owning email is returned. When no row
// qualifies (missing, already used, or expired) it returns
// common.ErrorNotFound; the caller re-reads the row to report the reason.
func (r *PostgresRepository) MarkUsed(ctx context.Context, token string, now time.Time) (string, error) {
	query := `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > $2
		RETURNING email
	`
	var email string
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return email, nil
}
