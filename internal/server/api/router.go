package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP routing table. The gate runs on every
// request; it binds an identity when a valid token is present and otherwise
// lets the request through anonymously, so public /auth routes and protected
// /files routes share one chain.
func NewRouter(authH *AuthHandler, vaultH *VaultHandler, gate func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(gate)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authH.Login)
		r.Post("/register", authH.Register)
		r.Post("/forgot-password", authH.ForgotPassword)
		r.Post("/reset-password", authH.ResetPassword)
		r.Get("/validate-reset-token", authH.ValidateResetToken)
		r.Get("/health", authH.Health)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/upload", vaultH.Upload)
		r.Get("/my-files", vaultH.List)
		r.Get("/my-files/{type}", vaultH.ListByType)
		r.Get("/download/{id}", vaultH.Download)
		r.Get("/preview/{id}", vaultH.Preview)
		r.Get("/info/{id}", vaultH.Info)
		r.Put("/{id}/rename", vaultH.Rename)
		r.Delete("/{id}", vaultH.Delete)
	})

	return r
}
