package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/models"
	"github.com/appp2p/authvault/internal/server/repositories/files"
	"github.com/appp2p/authvault/internal/server/repositories/resettokens"
	"github.com/appp2p/authvault/internal/server/repositories/users"
)

// In-memory repository fakes. They ignore the DBTX handle: transactional
// behavior is exercised by the repository sqlmock tests, the service tests
// only care about flow.

type fakeUsersRepo struct {
	mu           sync.Mutex
	byEmail      map[string]*models.User
	createErr    error
	updateErr    error
	passwordSets int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: make(map[string]*models.User)}
}

func (r *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	u := *user
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = &u
	return &u, nil
}

func (r *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *fakeUsersRepo) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	r.passwordSets++
	return nil
}

type fakeResetTokensRepo struct {
	mu      sync.Mutex
	byToken map[string]*models.ResetToken
}

func newFakeResetTokensRepo() *fakeResetTokensRepo {
	return &fakeResetTokensRepo{byToken: make(map[string]*models.ResetToken)}
}

func (r *fakeResetTokensRepo) Create(ctx context.Context, email string, token string, validity time.Duration) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	rt := &models.ResetToken{
		ID:        uuid.New().String(),
		Token:     token,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(validity),
	}
	r.byToken[token] = rt
	return rt, nil
}

func (r *fakeResetTokensRepo) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rt
	return &cp, nil
}

func (r *fakeResetTokensRepo) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, rt := range r.byToken {
		if rt.Email == email {
			delete(r.byToken, k)
		}
	}
	return nil
}

// MarkUsed mirrors the conditional UPDATE of the real repository: the check
// and the flip happen under one lock, so one caller wins.
func (r *fakeResetTokensRepo) MarkUsed(ctx context.Context, token string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.byToken[token]
	if !ok || rt.Used || !now.Before(rt.ExpiresAt) {
		return "", common.ErrorNotFound
	}
	rt.Used = true
	return rt.Email, nil
}

type fakeFilesRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.File
	createErr error
	seq       int
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{byID: make(map[string]*models.File)}
}

func (r *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	f := *file
	f.ID = uuid.New().String()
	r.seq++
	f.UploadedAt = time.Unix(int64(r.seq), 0)
	r.byID[f.ID] = &f
	cp := f
	return &cp, nil
}

func (r *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFilesRepo) ListByOwner(ctx context.Context, ownerEmail string, fileType string) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.File
	for _, f := range r.byID {
		if f.OwnerEmail != ownerEmail {
			continue
		}
		if fileType != "" && f.FileType != fileType {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *fakeFilesRepo) UpdateOriginalName(ctx context.Context, id string, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.OriginalName = newName
	return nil
}

func (r *fakeFilesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeRepoManager struct {
	users  *fakeUsersRepo
	tokens *fakeResetTokensRepo
	files  *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:  newFakeUsersRepo(),
		tokens: newFakeResetTokensRepo(),
		files:  newFakeFilesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokens.Repository      { return m.tokens }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository                  { return m.files }

type fakeNotifier struct {
	mu          sync.Mutex
	welcomeTo   []string
	resetTo     []string
	resetTokens []string
	welcomeErr  error
	resetErr    error
}

func (n *fakeNotifier) SendWelcomeEmail(ctx context.Context, to string, firstName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.welcomeErr != nil {
		return n.welcomeErr
	}
	n.welcomeTo = append(n.welcomeTo, to)
	return nil
}

func (n *fakeNotifier) SendPasswordResetEmail(ctx context.Context, to string, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resetErr != nil {
		return n.resetErr
	}
	n.resetTo = append(n.resetTo, to)
	n.resetTokens = append(n.resetTokens, token)
	return nil
}

func (n *fakeNotifier) lastResetToken(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.resetTokens)
	return n.resetTokens[len(n.resetTokens)-1]
}

// openTestDB returns an in-memory sqlite handle. The fakes never issue real
// queries; the handle only backs dbx.WithTx begin/commit plumbing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
