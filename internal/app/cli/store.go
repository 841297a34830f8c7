package cli

import (
	"context"
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/mongostore"
	"github.com/dalemusser/circlehub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// openStore connects to the configured backend. The memory backend starts
// empty and is only useful for trying commands out.
func openStore(ctx context.Context, opts *RootOptions, logger *zap.Logger) (docstore.Store, func(), error) {
	switch opts.Backend {
	case "memory":
		return memstore.New(memstore.WithMaxAttempts(opts.TxnMaxAttempts), memstore.WithLogger(logger)), func() {}, nil
	case "mongo":
	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.Backend)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.MongoURI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	ds := mongostore.New(client, client.Database(opts.MongoDatabase), logger, txn.Options{MaxAttempts: opts.TxnMaxAttempts})
	return ds, func() { _ = client.Disconnect(context.Background()) }, nil
}
