// internal/app/features/auditlog/routes.go
package auditlog

import "github.com/go-chi/chi/v5"

// Routes is mounted under /admin/audit behind an admin role check.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	return r
}
