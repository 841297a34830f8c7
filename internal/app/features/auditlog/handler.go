// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Log    *zap.Logger
}

// NewHandler constructs an audit log feature handler reading from ds.
func NewHandler(ds docstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Events: audit.New(ds),
		Log:    logger,
	}
}
