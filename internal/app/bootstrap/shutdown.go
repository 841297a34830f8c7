// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then tears down tracing and the MongoDB
// client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if s := deps.Services; s != nil {
		if s.Scheduler != nil {
			s.Scheduler.Stop()
		}
		if s.Writer != nil {
			s.Writer.Stop()
		}
		s.releaseTracing(ctx, logger)
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting CircleHub MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
