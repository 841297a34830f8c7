// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/cardmove"
	"github.com/dalemusser/circlehub/internal/app/system/echo"
	"github.com/dalemusser/circlehub/internal/app/system/members"
	"github.com/dalemusser/circlehub/internal/app/system/ratelimit"
	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/dalemusser/circlehub/internal/app/system/tasks"
	"github.com/dalemusser/circlehub/internal/app/system/textgen"
	"github.com/dalemusser/circlehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// buildGenerator picks the AI-member text generator; tests replace it.
var buildGenerator = newGenerator

// staticBio is used for AI members when no text generation key is configured.
const staticBio = "A friendly member of this community."

// Services are the long-lived components shared by the HTTP features.
type Services struct {
	Reconciler *reconcile.Engine
	Mover      *cardmove.Engine
	Echoer     *echo.Engine
	Profiles   *members.CachedLookup
	Gen        textgen.Generator
	AILimiter  *ratelimit.Limiter
	Audit      *auditlog.Logger
	Sessions   *auth.SessionManager
	Writer     *workers.AsyncWriter
	Scheduler  *tasks.Scheduler

	stopTracing func(context.Context) error
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the sync engines and starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (err error) {
	s := deps.Services

	if appCfg.TraceEnabled {
		stop, terr := setupTracing(ctx, appCfg.TraceEndpoint, coreCfg.Env, logger)
		if terr != nil {
			return terr
		}
		s.stopTracing = stop
		defer func() {
			if err != nil {
				s.releaseTracing(ctx, logger)
			}
		}()
	}

	s.Reconciler = reconcile.New(deps.Store, logger, reconcile.Config{BatchSize: appCfg.ReconcileBatchSize})
	s.Mover = cardmove.New(deps.Store, logger)
	s.Echoer = echo.New(deps.Store, logger)
	s.Profiles = members.NewCachedLookup(members.NewStoreLookup(deps.Store), appCfg.ProfileCacheTTL)
	s.Audit = auditlog.New(audit.New(deps.Store), logger, auditlog.Config{
		Sync:    appCfg.AuditLogSync,
		Profile: appCfg.AuditLogProfile,
	})

	gen, err := buildGenerator(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	s.Gen = gen
	if appCfg.AIMemberRateLimit > 0 {
		s.AILimiter = ratelimit.New(appCfg.AIMemberRateLimit, time.Hour)
	}

	sessionKey := appCfg.SessionKey
	if sessionKey == "" {
		logger.Warn("session_key not set; generated a temporary key")
		sessionKey = auth.GenerateKey()
	}
	s.Sessions, err = auth.NewSessionManager(sessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, coreCfg.Env == "prod", logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return err
	}

	s.Writer = workers.NewAsyncWriter(logger, workers.AsyncConfig{
		Workers:   appCfg.AsyncWorkers,
		QueueSize: appCfg.AsyncQueueSize,
	})
	s.Writer.Start()

	s.Scheduler = tasks.NewScheduler(logger)
	s.Scheduler.Add(tasks.ReconcileMembersJob(s.Reconciler, logger, appCfg.ReconcileInterval))
	s.Scheduler.Start()

	return nil
}

// releaseTracing flushes and shuts down the tracer provider, if one was
// installed. It is safe to call more than once.
func (s *Services) releaseTracing(ctx context.Context, logger *zap.Logger) {
	if s.stopTracing == nil {
		return
	}
	stop := s.stopTracing
	s.stopTracing = nil
	if err := stop(ctx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
}

func newGenerator(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (textgen.Generator, error) {
	if appCfg.GenAIAPIKey == "" {
		logger.Info("genai_api_key not set; AI members get a static bio")
		return textgen.Static{Text: staticBio}, nil
	}
	g, err := textgen.NewGenAI(ctx, appCfg.GenAIAPIKey, appCfg.GenAIModel)
	if err != nil {
		logger.Error("text generation client init failed", zap.Error(err))
		return nil, err
	}
	logger.Info("text generation enabled", zap.String("model", appCfg.GenAIModel))
	return g, nil
}
