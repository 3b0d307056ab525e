// internal/app/features/classes/routes.go
package classes

import (
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /classes subrouter. All of it requires a session;
// the per-action policy narrows further to the HOD (and, for the rep
// password slot, the class teacher).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleDelete)
	r.Put("/{id}/passwords", h.HandlePasswords)
	return r
}
