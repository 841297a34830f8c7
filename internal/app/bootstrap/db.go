// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/mongostore"
	"github.com/dalemusser/circlehub/internal/app/system/indexes"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the configured document store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Services: &Services{}}

	if appCfg.StoreBackend == backendMemory {
		logger.Info("using in-memory document store")
		deps.Store = memstore.New(
			memstore.WithMaxAttempts(appCfg.TxnMaxAttempts),
			memstore.WithLogger(logger),
		)
		return deps, nil
	}

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	deps.MongoClient = client
	deps.MongoDatabase = db
	deps.Store = mongostore.New(client, db, logger, txn.Options{MaxAttempts: appCfg.TxnMaxAttempts})
	return deps, nil
}

// EnsureSchema creates the indexes the stores query by. The memory backend
// has nothing to set up.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
