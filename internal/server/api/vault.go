package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/api/middleware"
	"github.com/appp2p/authvault/internal/server/models"
)

// uploadMemoryLimit caps how much of a multipart body is buffered in memory;
// the rest spills to temp files.
const uploadMemoryLimit = 32 << 20

// Vault is the slice of the vault service the HTTP layer needs.
type Vault interface {
	Upload(ctx context.Context, ownerEmail, originalName, contentType string, size int64, r io.Reader) (*models.File, error)
	List(ctx context.Context, ownerEmail, fileType string) ([]*models.File, error)
	GetMetadata(ctx context.Context, ownerEmail, id string) (*models.File, error)
	Fetch(ctx context.Context, ownerEmail, id string) (*models.File, io.ReadCloser, error)
	Rename(ctx context.Context, ownerEmail, id, newName string) (*models.File, error)
	Delete(ctx context.Context, ownerEmail, id string) error
}

// VaultHandler serves the /files endpoints. Every route requires an
// authenticated identity; anonymous requests get 401 here, not at the gate.
type VaultHandler struct {
	vault    Vault
	validate *validator.Validate
	log      logging.Logger
}

func NewVaultHandler(vault Vault, log logging.Logger) *VaultHandler {
	return &VaultHandler{
		vault:    vault,
		validate: validator.New(),
		log:      log,
	}
}

type fileResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	FileType     string    `json:"fileType"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		ContentType:  f.ContentType,
		SizeBytes:    f.SizeBytes,
		FileType:     f.FileType,
		UploadedAt:   f.UploadedAt,
	}
}

// identity pulls the authenticated email off the request, writing the 401
// when there is none.
func (h *VaultHandler) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := middleware.UserEmail(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return email, ok
}

func (h *VaultHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer part.Close()

	contentType := header.Header.Get("Content-Type")
	file, err := h.vault.Upload(r.Context(), owner, header.Filename, contentType, header.Size, part)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *VaultHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	fileType := strings.ToUpper(chi.URLParam(r, "type"))
	switch fileType {
	case models.FileTypeImage, models.FileTypeVideo, models.FileTypeDocument:
	default:
		writeMessage(w, http.StatusBadRequest, "unknown file type")
		return
	}
	h.list(w, r, fileType)
}

func (h *VaultHandler) list(w http.ResponseWriter, r *http.Request, fileType string) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	files, err := h.vault.List(r.Context(), owner, fileType)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *VaultHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "attachment")
}

// Preview streams the content inline so browsers render it instead of
// saving it; this is the route media elements use with the token query
// parameter.
func (h *VaultHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "inline")
}

func (h *VaultHandler) stream(w http.ResponseWriter, r *http.Request, disposition string) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	file, rc, err := h.vault.Fetch(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.SizeBytes))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.OriginalName))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn(r.Context(), "file stream aborted", "id", file.ID, "error", err)
	}
}

func (h *VaultHandler) Info(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	file, err := h.vault.GetMetadata(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file))
}

type renameRequest struct {
	NewName string `json:"newName" validate:"required"`
}

func (h *VaultHandler) Rename(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.vault.Rename(r.Context(), owner, chi.URLParam(r, "id"), req.NewName)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file))
}

func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.vault.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
