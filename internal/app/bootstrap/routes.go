// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/circlehub/internal/app/features/auditlog"
	communitiesfeature "github.com/dalemusser/circlehub/internal/app/features/communities"
	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	formsfeature "github.com/dalemusser/circlehub/internal/app/features/forms"
	healthfeature "github.com/dalemusser/circlehub/internal/app/features/health"
	profilefeature "github.com/dalemusser/circlehub/internal/app/features/profile"
	reconcilefeature "github.com/dalemusser/circlehub/internal/app/features/reconcile"
	roadmapfeature "github.com/dalemusser/circlehub/internal/app/features/roadmap"
	"github.com/dalemusser/circlehub/internal/app/features/shared"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. CircleHub applies session middleware and mounts
// the JSON feature routers: health, reconcile, audit, roadmap, forms,
// communities and profile.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s := deps.Services

	r := chi.NewRouter()
	if appCfg.TraceEnabled {
		r.Use(traceRequests)
	}

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(s.Sessions.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, appCfg.StoreBackend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Development sign-in; real sessions are issued by the identity service.
	if coreCfg.Env == "dev" {
		r.Post("/dev/signin", devSignIn(s.Sessions, logger))
	}

	// Operator reconciliation
	reconcileHandler := reconcilefeature.NewHandler(s.Reconciler, s.Audit, logger)
	r.With(auth.RequireRole("admin")).Mount("/admin/reconcile", reconcilefeature.Routes(reconcileHandler))

	auditHandler := auditlogfeature.NewHandler(deps.Store, logger)
	r.With(auth.RequireRole("admin")).Mount("/admin/audit", auditlogfeature.Routes(auditHandler))

	// Kanban columns
	roadmapHandler := roadmapfeature.NewHandler(deps.Store, s.Mover, s.Audit, logger)
	r.Mount("/columns", roadmapfeature.Routes(roadmapHandler))

	// Communities and their forms
	formsHandler := formsfeature.NewHandler(deps.Store, s.Echoer, s.Audit, logger)
	communitiesHandler := communitiesfeature.NewHandler(deps.Store, s.Profiles, s.Gen, s.Audit, logger)
	communitiesHandler.Limiter = s.AILimiter
	r.Route("/communities/{communityID}", func(r chi.Router) {
		r.Mount("/forms", formsfeature.Routes(formsHandler))
		r.Mount("/", communitiesfeature.Routes(communitiesHandler))
	})

	// The caller's own profile
	profileHandler := profilefeature.NewHandler(deps.Store, s.Reconciler, s.Writer, s.Profiles, s.Audit, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	return r, nil
}

type signInRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`
}

func devSignIn(sessions *auth.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := shared.DecodeJSON(w, r, "bootstrap.devSignIn", &req); err != nil {
			uierrors.Write(w, r, logger, err)
			return
		}
		if req.ID == "" || req.Name == "" {
			uierrors.BadRequest(w, "id and name are required")
			return
		}
		u := auth.SessionUser{ID: req.ID, Name: req.Name, AvatarURL: req.AvatarURL, Role: req.Role}
		if err := sessions.SignIn(w, r, u); err != nil {
			logger.Error("dev sign-in failed", zap.Error(err))
			http.Error(w, "sign-in failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
