// Package middleware holds the HTTP middleware chain, most importantly the
// authentication gate that turns a bearer token into a request identity.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/auth"
	"github.com/appp2p/authvault/internal/server/models"
)

type contextKey string

const contextKeyUserEmail contextKey = "user_email"

// UserEmail returns the authenticated account email bound to the request
// context, if any.
func UserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(contextKeyUserEmail).(string)
	return email, ok
}

// WithUserEmail binds an identity onto ctx; exported for handler tests.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKeyUserEmail, email)
}

// UserFinder resolves a token subject to an account.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticate is the gate every request passes through. It looks for a
// bearer token in the Authorization header and falls back to the "token"
// query parameter, verifies it, resolves the subject to an account, and binds
// the identity onto the request context.
//
// The gate never rejects: any failure (missing, malformed, expired or
// forged token, unknown subject) simply lets the request continue
// anonymously, and route-level checks decide whether anonymous is enough.
// A request that already carries an identity passes through untouched.
func Authenticate(codec *auth.Codec, users UserFinder, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if _, ok := UserEmail(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := extractToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := codec.Verify(tokenString)
			if err != nil {
				log.Debug(ctx, "bearer token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByEmail(ctx, subject)
			if err != nil {
				log.Debug(ctx, "token subject does not resolve to an account", "subject", subject, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserEmail(ctx, user.Email)))
		})
	}
}

// extractToken pulls the credential off the request: Authorization header
// first, "token" query parameter second. The fallback exists for clients
// that cannot set headers, e.g. media elements pointed at a download URL.
func extractToken(r *http.Request) string {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if strings.HasPrefix(header, common.BearerPrefix) {
		return strings.TrimPrefix(header, common.BearerPrefix)
	}
	return r.URL.Query().Get(common.TokenQueryParamName)
}
