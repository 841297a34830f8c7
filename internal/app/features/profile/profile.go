// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/features/shared"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	profilestore "github.com/dalemusser/circlehub/internal/app/store/profiles"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/app/system/workers"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	maxNameRunes = 80
	maxBioRunes  = 500
)

// updateRequest is the body of PUT /profile.
type updateRequest struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// updateResponse echoes the saved profile and names the background sync.
type updateResponse struct {
	Profile  models.Profile `json:"profile"`
	SyncTask string         `json:"syncTask,omitempty"`
}

// ServeProfile handles GET /profile for the signed-in user.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	const op = "profile.ServeProfile"
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "get profile")
	defer cancel()

	p, err := h.Profiles.Get(ctx, u.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		uierrors.Write(w, r, h.Log, apperr.NotFound(op, profilestore.Collection, u.ID))
		return
	}
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /profile. The profile is saved synchronously; the
// member copies in communities catch up in the background.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "profile.HandleUpdate"
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	var req updateRequest
	if err := shared.DecodeJSON(w, r, op, &req); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}

	p := models.Profile{
		UserID: u.ID,
		Name:   htmlsanitize.Truncate(htmlsanitize.PlainText(req.Name), maxNameRunes),
		Bio:    htmlsanitize.Truncate(htmlsanitize.PlainText(req.Bio), maxBioRunes),
	}
	if p.Name == "" {
		uierrors.Write(w, r, h.Log, apperr.Validation(op, "name", "name is required"))
		return
	}
	if req.AvatarURL != "" {
		if !validAvatarURL(req.AvatarURL) {
			uierrors.Write(w, r, h.Log, apperr.Validation(op, "avatarUrl", "avatar must be an http(s) URL"))
			return
		}
		p.AvatarURL = req.AvatarURL
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "save profile")
	defer cancel()

	saved, err := h.Profiles.Upsert(ctx, p)
	if err != nil {
		uierrors.Write(w, r, h.Log, apperr.FromStore(op, err))
		return
	}
	if h.Cache != nil {
		h.Cache.Invalidate(u.ID)
	}
	h.Audit.ProfileUpdated(ctx, r, u.ID)

	resp := updateResponse{Profile: saved}
	if h.Writer != nil && h.Reconciler != nil {
		t := h.Writer.Submit(h.syncJob(u.ID))
		resp.SyncTask = t.ID
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// syncJob refreshes every member copy of userID.
func (h *Handler) syncJob(userID string) workers.Job {
	return workers.Job{
		Name: "profile-sync",
		Run: func(ctx context.Context) error {
			res, err := h.Reconciler.ReconcileUser(ctx, userID)
			h.Audit.ReconcileRun(ctx, nil, userID, userID, res, err)
			if err != nil {
				return err
			}
			h.Log.Debug("profile synced to communities",
				zap.String("user_id", userID),
				zap.Int("issues_fixed", res.IssuesFixed))
			return nil
		},
	}
}

func validAvatarURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
