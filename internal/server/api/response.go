// Package api exposes the HTTP surface: JSON handlers for the account flows
// and the file vault, plus the router wiring them behind the auth gate.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/logging"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusForError maps service errors onto HTTP statuses. Anything unmapped is
// an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrPasswordMismatch),
		errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, common.ErrResetTokenInvalid),
		errors.Is(err, common.ErrResetTokenUsed),
		errors.Is(err, common.ErrResetTokenExpired),
		errors.Is(err, common.ErrEmptyFile),
		errors.Is(err, common.ErrBlankFileName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err to the client. Internal errors are logged
// with detail but reported generically; expected flow errors carry their own
// message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}
