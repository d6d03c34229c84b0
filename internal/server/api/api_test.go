package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/api/middleware"
	"github.com/appp2p/authvault/internal/server/auth"
	"github.com/appp2p/authvault/internal/server/models"
	"github.com/appp2p/authvault/internal/server/services"
)

// Scripted service fakes: each method returns what the test told it to and
// records the arguments it saw.

type fakeFlows struct {
	loginSession *services.Session
	loginErr     error

	registerSession *services.Session
	registerErr     error

	forgotErr   error
	forgotCalls []string

	resetErr   error
	resetCalls []string

	validateErr error
}

func (f *fakeFlows) Login(ctx context.Context, email, password string) (*services.Session, error) {
	return f.loginSession, f.loginErr
}

func (f *fakeFlows) Register(ctx context.Context, email, password, passwordConfirm, firstName, lastName string) (*services.Session, error) {
	return f.registerSession, f.registerErr
}

func (f *fakeFlows) ForgotPassword(ctx context.Context, email string) error {
	f.forgotCalls = append(f.forgotCalls, email)
	return f.forgotErr
}

func (f *fakeFlows) ResetPassword(ctx context.Context, token, newPassword, newPasswordConfirm string) error {
	f.resetCalls = append(f.resetCalls, token)
	return f.resetErr
}

func (f *fakeFlows) ValidateResetToken(ctx context.Context, token string) error {
	return f.validateErr
}

type uploadCall struct {
	owner       string
	name        string
	contentType string
	size        int64
	content     []byte
}

type fakeVault struct {
	file    *models.File
	files   []*models.File
	rc      io.ReadCloser
	err     error
	uploads []uploadCall

	lastOwner    string
	lastID       string
	lastFileType string
	lastNewName  string
}

func (v *fakeVault) Upload(ctx context.Context, ownerEmail, originalName, contentType string, size int64, r io.Reader) (*models.File, error) {
	b, _ := io.ReadAll(r)
	v.uploads = append(v.uploads, uploadCall{ownerEmail, originalName, contentType, size, b})
	return v.file, v.err
}

func (v *fakeVault) List(ctx context.Context, ownerEmail, fileType string) ([]*models.File, error) {
	v.lastOwner, v.lastFileType = ownerEmail, fileType
	return v.files, v.err
}

func (v *fakeVault) GetMetadata(ctx context.Context, ownerEmail, id string) (*models.File, error) {
	v.lastOwner, v.lastID = ownerEmail, id
	return v.file, v.err
}

func (v *fakeVault) Fetch(ctx context.Context, ownerEmail, id string) (*models.File, io.ReadCloser, error) {
	v.lastOwner, v.lastID = ownerEmail, id
	if v.err != nil {
		return nil, nil, v.err
	}
	return v.file, v.rc, nil
}

func (v *fakeVault) Rename(ctx context.Context, ownerEmail, id, newName string) (*models.File, error) {
	v.lastOwner, v.lastID, v.lastNewName = ownerEmail, id, newName
	return v.file, v.err
}

func (v *fakeVault) Delete(ctx context.Context, ownerEmail, id string) error {
	v.lastOwner, v.lastID = ownerEmail, id
	return v.err
}

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

// testRouter wires the full chain, gate included, against the fakes. Tokens
// issued with testCodec for ann@example.com authenticate.
func testRouter(flows *fakeFlows, vault *fakeVault) (http.Handler, *auth.Codec) {
	log := testLogger()
	codec := auth.NewCodec([]byte("api-test-secret"), time.Hour)
	users := staticUserFinder{"ann@example.com": {ID: "u1", Email: "ann@example.com"}}
	gate := middleware.Authenticate(codec, users, log)
	return NewRouter(NewAuthHandler(flows, log), NewVaultHandler(vault, log), gate), codec
}
