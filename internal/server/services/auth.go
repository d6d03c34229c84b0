package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/auth"
	"github.com/appp2p/authvault/internal/server/email"
	"github.com/appp2p/authvault/internal/server/hash"
	"github.com/appp2p/authvault/internal/server/models"
	"github.com/appp2p/authvault/internal/server/repositories/repomanager"
)

// AuthService implements the account flows: login, registration, and the
// forgot/reset password sequence. It deliberately reports the same error for
// unknown accounts and wrong passwords so callers cannot probe which emails
// are registered.
type AuthService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	hasher   hash.PasswordHasher
	codec    *auth.Codec
	tokens   *ResetTokenService
	notifier email.Notifier
	log      logging.Logger
}

func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, hasher hash.PasswordHasher,
	codec *auth.Codec, tokens *ResetTokenService, notifier email.Notifier, log logging.Logger) *AuthService {
	return &AuthService{
		db:       db,
		rm:       rm,
		hasher:   hasher,
		codec:    codec,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session is the outcome of a successful login or registration: the bearer
// token, its absolute expiry, and the account it identifies.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login checks the credentials and returns a session with a signed bearer
// token. Unknown email and wrong password are indistinguishable to the
// caller: both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	emailAddr = normalizeEmail(emailAddr)

	user, err := s.rm.Users(s.db).FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.newSession(user)
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.codec.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates an account and logs it in. The welcome email is
// best-effort: a delivery failure is logged but never fails the registration.
func (s *AuthService) Register(ctx context.Context, emailAddr, password, passwordConfirm, firstName, lastName string) (*Session, error) {
	emailAddr = normalizeEmail(emailAddr)

	if password != passwordConfirm {
		return nil, common.ErrPasswordMismatch
	}

	exists, err := s.rm.Users(s.db).ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrEmailTaken
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.rm.Users(s.db).Create(ctx, &models.User{
		Email:        emailAddr,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
		s.log.Warn(ctx, "welcome email not delivered", "email", user.Email, "error", err)
	}

	return s.newSession(user)
}

// ForgotPassword issues a reset token for the account and emails it. When the
// email is not registered it silently succeeds, again to prevent account
// enumeration. A mail delivery failure, however, is fatal: without the email
// the user has no way to complete the flow.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	_, err := s.rm.Users(s.db).FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "password reset requested for unknown email", "email", emailAddr)
			return nil
		}
		return err
	}

	token, err := s.tokens.Issue(ctx, emailAddr)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, emailAddr, token); err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotifierFailure, err)
	}
	return nil
}

// ResetPassword consumes the token and replaces the account password in one
// transaction, so a token can never be burned without the password actually
// changing, and vice versa.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, newPasswordConfirm string) error {
	if newPassword != newPasswordConfirm {
		return common.ErrPasswordMismatch
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		emailAddr, err := s.tokens.Consume(ctx, tx, token)
		if err != nil {
			return err
		}
		return s.rm.Users(tx).UpdatePassword(ctx, emailAddr, passwordHash)
	})
}

// ValidateResetToken reports whether a reset token is still usable, without
// consuming it. Frontends call this before showing the new-password form.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	return s.tokens.Validate(ctx, token)
}
