// internal/app/features/roadmap/handler.go
package roadmap

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/features/shared"
	columnstore "github.com/dalemusser/circlehub/internal/app/store/columns"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/cardmove"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves kanban columns and card moves.
type Handler struct {
	Columns *columnstore.Store
	Mover   *cardmove.Engine
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(ds docstore.Store, mover *cardmove.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Columns: columnstore.New(ds),
		Mover:   mover,
		Audit:   audit,
		Log:     logger,
	}
}

// ServeColumn handles GET /columns/{columnID}.
func (h *Handler) ServeColumn(w http.ResponseWriter, r *http.Request) {
	const op = "roadmap.ServeColumn"
	id := chi.URLParam(r, "columnID")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "get column")
	defer cancel()

	col, err := h.Columns.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		uierrors.Write(w, r, h.Log, apperr.NotFound(op, columnstore.Collection, id))
		return
	}
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, col)
}

type moveRequest struct {
	TargetColumnID string `json:"targetColumnId"`
}

// HandleMove handles POST /columns/{columnID}/cards/{cardID}/move with body
// {"targetColumnId": "..."}. A card already gone from the source column is
// answered with 200 and {"moved": false}.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	var req moveRequest
	if err := shared.DecodeJSON(w, r, "roadmap.HandleMove", &req); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	src := chi.URLParam(r, "columnID")
	cardID := chi.URLParam(r, "cardID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Txn(), h.Log, "move card")
	defer cancel()

	res, err := h.Mover.MoveCard(ctx, src, req.TargetColumnID, cardID)
	h.Audit.CardMoved(ctx, r, u.ID, src, req.TargetColumnID, cardID, res.Moved, err)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, res)
}
