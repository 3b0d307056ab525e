// internal/app/features/export/routes.go
package export

import "github.com/go-chi/chi/v5"

// Routes returns the /export subrouter. Exports are open reads like the
// lists they are derived from.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/collections/{id}.csv", h.ServeCollectionCSV)
	return r
}
