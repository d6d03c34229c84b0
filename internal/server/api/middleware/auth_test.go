package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/auth"
	"github.com/appp2p/authvault/internal/server/models"
)

type staticUserFinder map[string]*models.User

func (f staticUserFinder) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// identityProbe records what identity, if any, reached the handler.
func identityProbe(got *string, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = UserEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func gateFixture(t *testing.T) (*auth.Codec, func(http.Handler) http.Handler) {
	t.Helper()
	codec := auth.NewCodec([]byte("gate-secret"), time.Hour)
	users := staticUserFinder{
		"ann@example.com": {ID: "u1", Email: "ann@example.com"},
	}
	return codec, Authenticate(codec, users, testLogger())
}

func serve(t *testing.T, gate func(http.Handler) http.Handler, req *http.Request) (string, bool) {
	t.Helper()
	var email string
	var found bool
	rec := httptest.NewRecorder()
	gate(identityProbe(&email, &found)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "gate must never reject")
	return email, found
}

func TestAuthenticate_HeaderToken(t *testing.T) {
	codec, gate := gateFixture(t)
	token, _, err := codec.Issue("ann@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/my-files", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	email, found := serve(t, gate, req)
	assert.True(t, found)
	assert.Equal(t, "ann@example.com", email)
}

func TestAuthenticate_QueryParamFallback(t *testing.T) {
	codec, gate := gateFixture(t)
	token, _, err := codec.Issue("ann@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/download/abc?token="+token, nil)

	email, found := serve(t, gate, req)
	assert.True(t, found)
	assert.Equal(t, "ann@example.com", email)
}

func TestAuthenticate_HeaderWinsOverQueryParam(t *testing.T) {
	codec, gate := gateFixture(t)
	headerToken, _, err := codec.Issue("ann@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/x?token=garbage", nil)
	req.Header.Set("Authorization", "Bearer "+headerToken)

	email, found := serve(t, gate, req)
	assert.True(t, found)
	assert.Equal(t, "ann@example.com", email)
}

func TestAuthenticate_AnonymousPassThrough(t *testing.T) {
	codec, gate := gateFixture(t)

	cases := map[string]func() *http.Request{
		"no credential": func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/x", nil)
		},
		"non-bearer scheme": func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
			return req
		},
		"structurally malformed": func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer not-a-jwt")
			return req
		},
		"forged signature": func() *http.Request {
			other := auth.NewCodec([]byte("other-secret"), time.Hour)
			token, _, err := other.Issue("ann@example.com")
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		},
		"expired token": func() *http.Request {
			expired := auth.NewCodec([]byte("gate-secret"), -time.Minute)
			token, _, err := expired.Issue("ann@example.com")
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		},
		"unknown subject": func() *http.Request {
			token, _, err := codec.Issue("ghost@example.com")
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			_, found := serve(t, gate, build())
			assert.False(t, found, "request must continue anonymously")
		})
	}
}

func TestAuthenticate_ExistingIdentityUntouched(t *testing.T) {
	codec, gate := gateFixture(t)
	token, _, err := codec.Issue("ann@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(WithUserEmail(req.Context(), "already@example.com"))

	email, found := serve(t, gate, req)
	assert.True(t, found)
	assert.Equal(t, "already@example.com", email, "bound identity is not replaced")
}
