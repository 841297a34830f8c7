// internal/app/features/reconcile/handler.go
package reconcile

import (
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	syncreconcile "github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes member reconciliation to operators.
type Handler struct {
	Engine *syncreconcile.Engine
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func NewHandler(engine *syncreconcile.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Audit: audit, Log: logger}
}

// ServeAll handles POST /admin/reconcile.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "reconcile all")
	defer cancel()

	res, err := h.Engine.ReconcileAll(ctx)
	h.Audit.ReconcileRun(ctx, r, actorID(r), "", res, err)
	h.respond(w, r, res, err)
}

// ServeUser handles POST /admin/reconcile/users/{userID}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "reconcile user")
	defer cancel()

	res, err := h.Engine.ReconcileUser(ctx, userID)
	h.Audit.ReconcileRun(ctx, r, actorID(r), userID, res, err)
	h.respond(w, r, res, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res syncreconcile.Result, err error) {
	switch {
	case err == nil:
		uierrors.WriteJSON(w, http.StatusOK, res)
	case res.ChunksCommitted > 0:
		uierrors.WriteResult(w, r, h.Log, err, res)
	default:
		uierrors.Write(w, r, h.Log, err)
	}
}

func actorID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
