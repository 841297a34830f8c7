// internal/app/features/profile/handler.go
package profile

import (
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	profilestore "github.com/dalemusser/circlehub/internal/app/store/profiles"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/dalemusser/circlehub/internal/app/system/workers"
	"go.uber.org/zap"
)

// Invalidator drops cached copies of a user's profile.
type Invalidator interface {
	Invalidate(userID string)
}

// Handler owns the caller's own profile.
type Handler struct {
	Profiles   *profilestore.Store
	Reconciler *reconcile.Engine
	Writer     *workers.AsyncWriter
	Cache      Invalidator // optional
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler constructs a Handler. Profile edits are fanned out to member
// copies by running reconciler on writer.
func NewHandler(ds docstore.Store, reconciler *reconcile.Engine, writer *workers.AsyncWriter, cache Invalidator, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:   profilestore.New(ds),
		Reconciler: reconciler,
		Writer:     writer,
		Cache:      cache,
		Audit:      audit,
		Log:        logger,
	}
}
