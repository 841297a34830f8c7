// internal/app/features/reconcile/routes.go
package reconcile

import "github.com/go-chi/chi/v5"

// Routes is mounted under /admin/reconcile behind an admin role check.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeAll)
	r.Post("/users/{userID}", h.ServeUser)
	return r
}
