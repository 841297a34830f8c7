// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	backendMongo  = "mongo"
	backendMemory = "memory"
)

// appConfigKeys defines the configuration keys for CircleHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CIRCLEHUB_MONGO_URI, CIRCLEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: backendMongo, Desc: "Document store: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "circlehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},

	// Sync engines
	{Name: "txn_max_attempts", Default: 5, Desc: "Transaction attempts before reporting a concurrency conflict"},
	{Name: "reconcile_batch_size", Default: reconcile.DefaultBatchSize, Desc: "Communities committed per reconcile transaction"},
	{Name: "reconcile_interval", Default: "0s", Desc: "Interval of the scheduled member reconcile (0 disables it)"},

	// Sessions
	{Name: "session_key", Default: "", Desc: "Session signing key (must be strong in production; generated in dev when empty)"},
	{Name: "session_name", Default: "circlehub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Text generation
	{Name: "genai_api_key", Default: "", Desc: "Gemini API key for AI member bios (blank uses a static bio)"},
	{Name: "genai_model", Default: "gemini-2.5-flash", Desc: "Gemini model for AI member bios"},
	{Name: "ai_member_rate_limit", Default: 10, Desc: "AI members one user may add per hour (0 disables the limit)"},

	// Tracing
	{Name: "trace_enabled", Default: false, Desc: "Export OpenTelemetry traces"},
	{Name: "trace_endpoint", Default: "http://localhost:4318", Desc: "OTLP/HTTP collector endpoint"},

	{Name: "profile_cache_ttl", Default: "30s", Desc: "How long resolved profiles are cached"},

	// Background writes
	{Name: "async_workers", Default: 2, Desc: "Workers running profile fan-out jobs"},
	{Name: "async_queue_size", Default: 64, Desc: "Queued profile fan-out jobs before new ones are dropped"},

	// Audit logging settings
	{Name: "audit_log_sync", Default: "all", Desc: "Sync event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_profile", Default: "all", Desc: "Profile event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CIRCLEHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CIRCLEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend:     appValues.String("store_backend"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		TxnMaxAttempts:     appValues.Int("txn_max_attempts"),
		ReconcileBatchSize: appValues.Int("reconcile_batch_size"),
		ReconcileInterval:  appValues.Duration("reconcile_interval", 0),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		GenAIAPIKey:       appValues.String("genai_api_key"),
		GenAIModel:        appValues.String("genai_model"),
		AIMemberRateLimit: appValues.Int("ai_member_rate_limit"),

		TraceEnabled:  appValues.Bool("trace_enabled"),
		TraceEndpoint: appValues.String("trace_endpoint"),

		ProfileCacheTTL: appValues.Duration("profile_cache_ttl", 30*time.Second),

		AsyncWorkers:   appValues.Int("async_workers"),
		AsyncQueueSize: appValues.Int("async_queue_size"),

		AuditLogSync:    appValues.String("audit_log_sync"),
		AuditLogProfile: appValues.String("audit_log_profile"),
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked up front so configuration errors surface before
// a connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	return validate(coreCfg.Env, appCfg, logger)
}

func validate(env string, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case backendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required")
		}
	case backendMemory:
		if env == "prod" {
			logger.Warn("memory store in production: data is lost on restart")
		}
	default:
		return fmt.Errorf("store_backend must be %q or %q, got %q", backendMongo, backendMemory, appCfg.StoreBackend)
	}

	if appCfg.TxnMaxAttempts < 1 {
		return fmt.Errorf("txn_max_attempts must be at least 1, got %d", appCfg.TxnMaxAttempts)
	}
	if appCfg.ReconcileBatchSize < 1 {
		return fmt.Errorf("reconcile_batch_size must be at least 1, got %d", appCfg.ReconcileBatchSize)
	}
	if appCfg.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval must not be negative")
	}
	if env == "prod" && appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required in production")
	}
	for name, v := range map[string]string{"audit_log_sync": appCfg.AuditLogSync, "audit_log_profile": appCfg.AuditLogProfile} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be all, db, log or off, got %q", name, v)
		}
	}
	return nil
}
