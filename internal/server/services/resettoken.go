package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/config"
	"github.com/appp2p/authvault/internal/server/repositories/repomanager"
)

// ResetTokenService owns the lifecycle of password-reset tokens: issue,
// validate, consume. Tokens are opaque random strings, valid for a configured
// window and consumable exactly once.
type ResetTokenService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	validity time.Duration
	log      logging.Logger
}

func NewResetTokenService(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *ResetTokenService {
	return &ResetTokenService{
		db:       db,
		rm:       rm,
		validity: cfg.ResetTokenValidityDuration,
		log:      log,
	}
}

// Issue creates a fresh token for email and returns its plaintext value.
// Any earlier tokens for the same address are removed first, so at most one
// token per account is live at a time.
func (s *ResetTokenService) Issue(ctx context.Context, email string) (string, error) {
	repo := s.rm.ResetTokens(s.db)

	if err := repo.DeleteByEmail(ctx, email); err != nil {
		return "", fmt.Errorf("purging earlier tokens: %w", err)
	}

	token := uuid.New().String()
	if _, err := repo.Create(ctx, email, token, s.validity); err != nil {
		return "", fmt.Errorf("creating reset token: %w", err)
	}
	return token, nil
}

// Validate reports whether token could still be consumed, without consuming
// it. The checks run in a fixed order: existence, then prior use, then expiry.
func (s *ResetTokenService) Validate(ctx context.Context, token string) error {
	rt, err := s.rm.ResetTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenInvalid
		}
		return err
	}

	if rt.Used {
		return common.ErrResetTokenUsed
	}
	if !time.Now().Before(rt.ExpiresAt) {
		return common.ErrResetTokenExpired
	}
	return nil
}

// Consume atomically marks token used and returns the email it was issued
// for. The conditional update guarantees a single winner under concurrency;
// losers get a lifecycle error explaining why the token no longer works.
func (s *ResetTokenService) Consume(ctx context.Context, db dbx.DBTX, token string) (string, error) {
	repo := s.rm.ResetTokens(db)

	email, err := repo.MarkUsed(ctx, token, time.Now())
	if err == nil {
		return email, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	// The update matched nothing. Look the token up to say why.
	rt, findErr := repo.Find(ctx, token)
	if findErr != nil {
		if errors.Is(findErr, common.ErrorNotFound) {
			return "", common.ErrResetTokenInvalid
		}
		return "", findErr
	}
	if rt.Used {
		return "", common.ErrResetTokenUsed
	}
	return "", common.ErrResetTokenExpired
}
