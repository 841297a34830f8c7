// internal/app/features/roadmap/routes.go
package roadmap

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /columns.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{columnID}", h.ServeColumn)
	r.With(auth.RequireSignedIn).Post("/{columnID}/cards/{cardID}/move", h.HandleMove)
	return r
}
