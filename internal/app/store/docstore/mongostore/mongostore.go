// Package mongostore implements docstore.Store on MongoDB.
//
// Collections map one-to-one onto MongoDB collections and document ids are
// stored in _id. Transactions require a replica set (or mongos); see txn.Run.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Store is a docstore.Store backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
	opts   txn.Options
}

// New wraps db. client must be the client db belongs to.
func New(client *mongo.Client, db *mongo.Database, logger *zap.Logger, opts txn.Options) *Store {
	return &Store{client: client, db: db, log: logger, opts: opts}
}

// Database exposes the underlying database for index management.
func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	var d docstore.Doc
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return d, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	docs := make([]docstore.Doc, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) FindBy(ctx context.Context, collection, field string, value any) ([]docstore.Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{field: value})
	if err != nil {
		return nil, fmt.Errorf("find %s.%s: %w", collection, field, err)
	}
	defer cur.Close(ctx)

	docs := make([]docstore.Doc, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find %s.%s: %w", collection, field, err)
	}
	return docs, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Doc) error {
	d := make(docstore.Doc, len(data)+1)
	for k, v := range data {
		d[k] = v
	}
	d["_id"] = id
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, ops ...docstore.Op) error {
	updates, err := buildUpdates(ops)
	if err != nil {
		return err
	}
	coll := s.db.Collection(collection)
	for _, u := range updates {
		res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, u)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		if res.MatchedCount == 0 {
			return docstore.ErrNotFound
		}
	}
	return nil
}

// RunTransaction runs fn in a MongoDB transaction. Inside fn, the Store itself
// serves as the Txn: every call made with the session context joins the
// transaction.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxnFunc) error {
	err := txn.Run(ctx, s.client, s.log, s.opts, func(sc context.Context) error {
		return fn(sc, s)
	})
	if errors.Is(err, txn.ErrRetryBudget) {
		return docstore.ErrConflict
	}
	return err
}

var (
	_ docstore.Store = (*Store)(nil)
	_ docstore.Txn   = (*Store)(nil)
)
