// internal/app/features/forms/handler.go
package forms

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/features/shared"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	formstore "github.com/dalemusser/circlehub/internal/app/store/forms"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/echo"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves a community's forms and echoes them elsewhere.
type Handler struct {
	Forms  *formstore.Store
	Echoer *echo.Engine
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func NewHandler(ds docstore.Store, echoer *echo.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Forms:  formstore.New(ds),
		Echoer: echoer,
		Audit:  audit,
		Log:    logger,
	}
}

// ServeList handles GET /communities/{communityID}/forms, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "list forms")
	defer cancel()

	list, err := h.Forms.ListByCommunity(ctx, communityID)
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore("forms.ServeList", err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, list)
}

// ServeForm handles GET /communities/{communityID}/forms/{formID}. A form
// that lives in another community is reported as not found.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	const op = "forms.ServeForm"
	communityID := chi.URLParam(r, "communityID")
	formID := chi.URLParam(r, "formID")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "get form")
	defer cancel()

	f, err := h.Forms.Get(ctx, formID)
	if errors.Is(err, docstore.ErrNotFound) || (err == nil && f.CommunityID != communityID) {
		uierrors.Write(w, r, h.Log, apperr.NotFound(op, formstore.Collection, formID))
		return
	}
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, f)
}

type echoRequest struct {
	TargetCommunityID string `json:"targetCommunityId"`
}

// HandleEcho handles POST /communities/{communityID}/forms/{formID}/echo with
// body {"targetCommunityId": "..."}. The signed-in user becomes the author of
// the echo.
func (h *Handler) HandleEcho(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	var req echoRequest
	if err := shared.DecodeJSON(w, r, "forms.HandleEcho", &req); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	communityID := chi.URLParam(r, "communityID")
	formID := chi.URLParam(r, "formID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Txn(), h.Log, "echo form")
	defer cancel()

	res, err := h.Echoer.Echo(ctx, communityID, formID, req.TargetCommunityID, u.Actor())
	h.Audit.FormEchoed(ctx, r, u.ID, communityID, formID, req.TargetCommunityID, res.NewFormID, err)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, res)
}
