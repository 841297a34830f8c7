package health

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store   docstore.Store
	Backend string
	Log     *zap.Logger
}

// NewHandler constructs a health Handler. backend names the configured store
// ("mongo" or "memory") and is echoed in the response.
func NewHandler(store docstore.Store, backend string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Backend: backend,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"mongo", "database":"connected" }
//
// On store failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Backend:  h.Backend,
		Database: "connected",
	}

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
