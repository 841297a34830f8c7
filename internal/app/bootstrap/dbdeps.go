// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	// Mongo fields are nil with the memory backend.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Store docstore.Store

	// Services is filled in by Startup and torn down by Shutdown.
	Services *Services
}
