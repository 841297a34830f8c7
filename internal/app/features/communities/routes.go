// internal/app/features/communities/routes.go
package communities

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /communities/{communityID}.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeCommunity)
	r.Get("/members", h.ServeMembers)
	r.With(auth.RequireSignedIn).Post("/ai-members", h.HandleAddAIMember)
	return r
}
