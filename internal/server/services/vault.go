package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/blob"
	"github.com/appp2p/authvault/internal/server/models"
	"github.com/appp2p/authvault/internal/server/repositories/repomanager"
)

// VaultService manages per-user file storage: content goes to the blob store,
// metadata to the database. Every read and mutation is scoped to the owning
// account; touching someone else's file yields ErrForbidden.
type VaultService struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	store blob.Store
	log   logging.Logger
}

func NewVaultService(db *sql.DB, rm repomanager.RepositoryManager, store blob.Store, log logging.Logger) *VaultService {
	return &VaultService{db: db, rm: rm, store: store, log: log}
}

// classifyContentType buckets a MIME type into the three vault categories.
// Anything that is not an image or a video counts as a document.
func classifyContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.FileTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.FileTypeVideo
	default:
		return models.FileTypeDocument
	}
}

// Upload stores the content and records its metadata under ownerEmail.
// The stored name is the original name prefixed with a random identifier, so
// repeated uploads of "report.pdf" never collide. If the metadata insert
// fails after the blob was written, the blob is removed again; when even that
// fails the orphaned key is logged for operators to clean up.
func (s *VaultService) Upload(ctx context.Context, ownerEmail, originalName, contentType string, size int64, r io.Reader) (*models.File, error) {
	if size == 0 {
		return nil, common.ErrEmptyFile
	}

	storageName := uuid.New().String() + "_" + originalName

	key, err := s.store.Store(ctx, r, storageName, contentType)
	if err != nil {
		return nil, fmt.Errorf("storing blob: %w", err)
	}

	file, err := s.rm.Files(s.db).Create(ctx, &models.File{
		StorageName:  storageName,
		OriginalName: originalName,
		ContentType:  contentType,
		SizeBytes:    size,
		BlobKey:      key,
		OwnerEmail:   ownerEmail,
		FileType:     classifyContentType(contentType),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error(ctx, "orphaned blob after failed metadata insert", "key", key, "error", delErr)
		}
		return nil, err
	}
	return file, nil
}

// List returns the owner's files, newest first. A non-empty fileType narrows
// the result to one classification (IMAGE, VIDEO or DOCUMENT).
func (s *VaultService) List(ctx context.Context, ownerEmail, fileType string) ([]*models.File, error) {
	return s.rm.Files(s.db).ListByOwner(ctx, ownerEmail, fileType)
}

// GetMetadata returns the metadata record for id, enforcing ownership.
func (s *VaultService) GetMetadata(ctx context.Context, ownerEmail, id string) (*models.File, error) {
	file, err := s.rm.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.OwnerEmail != ownerEmail {
		return nil, common.ErrForbidden
	}
	return file, nil
}

// Fetch returns the metadata together with the content stream. A metadata
// record whose blob is gone is reported as ErrCorruptRecord rather than a
// plain not-found, since the index and the store disagree.
func (s *VaultService) Fetch(ctx context.Context, ownerEmail, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.GetMetadata(ctx, ownerEmail, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Read(ctx, file.BlobKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "file record points at missing blob", "id", file.ID, "key", file.BlobKey)
			return nil, nil, common.ErrCorruptRecord
		}
		return nil, nil, err
	}
	return file, rc, nil
}

// Rename updates the display name. The original extension is kept: unless
// the new name already ends with it, it is appended, so "report.pdf" renamed
// to "q3 report" becomes "q3 report.pdf" and renaming to "q3 report.pdf"
// does not double the suffix. The stored blob and key are untouched.
func (s *VaultService) Rename(ctx context.Context, ownerEmail, id, newName string) (*models.File, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, common.ErrBlankFileName
	}

	file, err := s.GetMetadata(ctx, ownerEmail, id)
	if err != nil {
		return nil, err
	}

	if ext := filepath.Ext(file.OriginalName); ext != "" && !strings.HasSuffix(newName, ext) {
		newName += ext
	}

	if err := s.rm.Files(s.db).UpdateOriginalName(ctx, id, newName); err != nil {
		return nil, err
	}
	file.OriginalName = newName
	return file, nil
}

// Delete removes the blob and then the metadata record. A blob-store failure
// is logged but does not keep the record alive: the index entry goes away
// regardless, and the leftover key is in the log.
func (s *VaultService) Delete(ctx context.Context, ownerEmail, id string) error {
	file, err := s.GetMetadata(ctx, ownerEmail, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.BlobKey); err != nil {
		s.log.Error(ctx, "blob delete failed", "id", file.ID, "key", file.BlobKey, "error", err)
	}
	return s.rm.Files(s.db).Delete(ctx, id)
}
