// internal/app/features/students/routes.go
package students

import (
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /students subrouter. The list is public; every
// mutation needs a session and is narrowed by the access policy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Patch("/status", h.HandleStatus)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
	return r
}
