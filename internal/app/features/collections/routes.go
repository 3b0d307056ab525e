// internal/app/features/collections/routes.go
package collections

import (
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /collections subrouter. The list is public; every
// mutation needs a session and is narrowed by the access policy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Put("/bulk", h.HandleBulk)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
	return r
}
