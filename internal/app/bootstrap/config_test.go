package bootstrap

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		StoreBackend:       backendMongo,
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "circlehub_test",
		TxnMaxAttempts:     5,
		ReconcileBatchSize: 200,
		AuditLogSync:       "all",
		AuditLogProfile:    "off",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid mongo", "dev", func(*AppConfig) {}, ""},
		{"valid memory", "dev", func(c *AppConfig) { c.StoreBackend = backendMemory; c.MongoURI = "" }, ""},
		{"unknown backend", "dev", func(c *AppConfig) { c.StoreBackend = "redis" }, "store_backend"},
		{"bad uri", "dev", func(c *AppConfig) { c.MongoURI = "http://nope" }, "MongoDB URI"},
		{"no database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"zero attempts", "dev", func(c *AppConfig) { c.TxnMaxAttempts = 0 }, "txn_max_attempts"},
		{"zero batch", "dev", func(c *AppConfig) { c.ReconcileBatchSize = 0 }, "reconcile_batch_size"},
		{"negative interval", "dev", func(c *AppConfig) { c.ReconcileInterval = -1 }, "reconcile_interval"},
		{"audit setting", "dev", func(c *AppConfig) { c.AuditLogSync = "sometimes" }, "audit_log_sync"},
		{"prod without session key", "prod", func(*AppConfig) {}, "session_key"},
		{"prod with session key", "prod", func(c *AppConfig) { c.SessionKey = strings.Repeat("k", 32) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validate(tt.env, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
