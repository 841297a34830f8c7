// internal/app/features/communities/handler.go
package communities

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/features/shared"
	communitystore "github.com/dalemusser/circlehub/internal/app/store/communities"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/members"
	"github.com/dalemusser/circlehub/internal/app/system/ratelimit"
	"github.com/dalemusser/circlehub/internal/app/system/textgen"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxNameRunes bounds AI member names.
const maxNameRunes = 80

// Handler serves community membership.
type Handler struct {
	Communities *communitystore.Store
	Profiles    members.ProfileLookup
	Gen         textgen.Generator
	Limiter     *ratelimit.Limiter // optional; bounds AI members per user
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(ds docstore.Store, lookup members.ProfileLookup, gen textgen.Generator, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Communities: communitystore.New(ds),
		Profiles:    lookup,
		Gen:         gen,
		Audit:       audit,
		Log:         logger,
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, op string) (models.Community, bool) {
	id := chi.URLParam(r, "communityID")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "get community")
	defer cancel()

	c, err := h.Communities.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		uierrors.Write(w, r, h.Log, apperr.NotFound(op, communitystore.Collection, id))
		return models.Community{}, false
	}
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return models.Community{}, false
	}
	return c, true
}

// ServeCommunity handles GET /communities/{communityID}. Members are returned
// as stored.
func (h *Handler) ServeCommunity(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, "communities.ServeCommunity")
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}

// ServeMembers handles GET /communities/{communityID}/members. Reference
// members are resolved against current profiles.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	const op = "communities.ServeMembers"
	c, ok := h.load(w, r, op)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "resolve members")
	defer cancel()

	recs, err := members.ResolveAll(ctx, c.Members, h.Profiles)
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, recs)
}

type aiMemberRequest struct {
	Name    string `json:"name"`
	Persona string `json:"persona"`
}

// HandleAddAIMember handles POST /communities/{communityID}/ai-members with
// body {"name": "...", "persona": "..."}. The bio is generated, then the
// member is appended to the community.
func (h *Handler) HandleAddAIMember(w http.ResponseWriter, r *http.Request) {
	const op = "communities.HandleAddAIMember"
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	var req aiMemberRequest
	if err := shared.DecodeJSON(w, r, op, &req); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	name := htmlsanitize.Truncate(htmlsanitize.PlainText(req.Name), maxNameRunes)
	if name == "" {
		uierrors.Write(w, r, h.Log, apperr.Validation(op, "name", "name is required"))
		return
	}

	c, ok := h.load(w, r, op)
	if !ok {
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(u.ID) {
		h.Log.Info("ai member rate limited", zap.String("user_id", u.ID))
		uierrors.TooManyRequests(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "add ai member")
	defer cancel()

	bio, err := textgen.MemberBio(ctx, h.Gen, name, strings.TrimSpace(req.Persona), c.Name)
	if err != nil {
		h.Log.Warn("ai member bio generation failed",
			zap.String("community_id", c.ID),
			zap.Error(err))
		err = &apperr.Error{Op: op, Kind: apperr.KindUnavailable, Resource: "textgen", Err: err}
		h.Audit.AIMemberAdded(ctx, r, u.ID, c.ID, name, err)
		uierrors.Write(w, r, h.Log, err)
		return
	}

	rec := models.MemberRecord{Name: name, Bio: bio, Role: members.DefaultRole, Type: models.MemberAI}
	err = h.Communities.AddMember(ctx, c.ID, models.Materialized(rec))
	h.Audit.AIMemberAdded(ctx, r, u.ID, c.ID, name, err)
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, rec)
}
