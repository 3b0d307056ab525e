// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the /auth subrouter. Everything here is public: login
// and the class picker must work without a session, and session/logout
// are harmless no-ops for anonymous callers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Get("/session", h.HandleSession)
	r.Get("/classes", h.HandleClasses)
	return r
}
