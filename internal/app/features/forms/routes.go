// internal/app/features/forms/routes.go
package forms

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /communities/{communityID}/forms.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{formID}", h.ServeForm)
	r.With(auth.RequireSignedIn).Post("/{formID}/echo", h.HandleEcho)
	return r
}
