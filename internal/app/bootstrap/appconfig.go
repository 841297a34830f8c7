// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CIRCLEHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to CircleHub lives
// here.
type AppConfig struct {
	// Document store backend: "mongo" or "memory".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Sync engines
	TxnMaxAttempts     int           // transaction attempts before a conflict is reported
	ReconcileBatchSize int           // communities committed per reconcile transaction
	ReconcileInterval  time.Duration // scheduled full reconcile; 0 disables it

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (generated when empty in dev)
	SessionName   string // Cookie name for sessions (default: circlehub-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Text generation for AI members
	GenAIAPIKey       string // empty selects the static fallback generator
	GenAIModel        string
	AIMemberRateLimit int // AI members a user may add per hour; 0 disables the limit

	// Tracing
	TraceEnabled  bool
	TraceEndpoint string // OTLP/HTTP collector URL

	// Member resolution
	ProfileCacheTTL time.Duration

	// Background writes
	AsyncWorkers   int
	AsyncQueueSize int

	// Audit logging ("all", "db", "log" or "off")
	AuditLogSync    string
	AuditLogProfile string
}
