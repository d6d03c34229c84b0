package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/services"
)

// AuthFlows is the slice of the auth service the HTTP layer needs.
type AuthFlows interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Register(ctx context.Context, email, password, passwordConfirm, firstName, lastName string) (*services.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword, newPasswordConfirm string) error
	ValidateResetToken(ctx context.Context, token string) error
}

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	flows    AuthFlows
	validate *validator.Validate
	log      logging.Logger
}

func NewAuthHandler(flows AuthFlows, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		flows:    flows,
		validate: validator.New(),
		log:      log,
	}
}

// decodeValid decodes the JSON body into dst and runs struct validation.
// On failure it has already written the 400 response.
func decodeValid(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token              string `json:"token" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=6"`
	NewPasswordConfirm string `json:"newPasswordConfirm" validate:"required"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
}

func toAuthResponse(s *services.Session) authResponse {
	return authResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Email:     s.User.Email,
		FirstName: s.User.FirstName,
		LastName:  s.User.LastName,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}

	session, err := h.flows.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(session))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}

	session, err := h.flows.Register(r.Context(), req.Email, req.Password, req.PasswordConfirm, req.FirstName, req.LastName)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(session))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}

	if err := h.flows.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	// Same answer whether or not the address is registered.
	writeMessage(w, http.StatusOK, "if the email is registered, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}

	if err := h.flows.ResetPassword(r.Context(), req.Token, req.NewPassword, req.NewPasswordConfirm); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeMessage(w, http.StatusOK, "password has been reset")
}

func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeMessage(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.flows.ValidateResetToken(r.Context(), token); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}

	writeMessage(w, http.StatusOK, "token is valid")
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
