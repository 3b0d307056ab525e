// internal/app/features/importcsv/routes.go
package importcsv

import (
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /import subrouter.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/students", h.HandleImport)
	return r
}
