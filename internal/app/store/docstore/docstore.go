// Package docstore defines the document-store contract the sync engines are
// written against: single-document CRUD, atomic array and counter update
// operations, and retrying multi-document transactions.
//
// Two implementations exist: mongostore (MongoDB) and memstore (in-process,
// used by tests and the "memory" store backend).
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Doc is a schemaless document. The "_id" key holds the document id.
type Doc = bson.M

// IDField is the key under which a document's id is stored.
const IDField = "_id"

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConflict is returned when a transaction kept losing to concurrent
	// writers until its retry budget ran out.
	ErrConflict = errors.New("docstore: transaction retry budget exhausted")
)

// Store is a document database.
type Store interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	List(ctx context.Context, collection string) ([]Doc, error)
	// FindBy returns the documents whose top-level field equals value.
	FindBy(ctx context.Context, collection, field string, value any) ([]Doc, error)
	// Set overwrites (or creates) the whole document.
	Set(ctx context.Context, collection, id string, data Doc) error
	// Update applies ops to an existing document atomically.
	Update(ctx context.Context, collection, id string, ops ...Op) error

	// RunTransaction runs fn with serializable read-modify-write semantics over
	// every document it touches. When a concurrent writer invalidates the
	// transaction, fn is run again from the start, up to the store's retry
	// budget; exhaustion yields ErrConflict. An error returned by fn aborts the
	// transaction without retry and without applying any of its writes.
	RunTransaction(ctx context.Context, fn TxnFunc) error

	Ping(ctx context.Context) error
}

// TxnFunc is the body of a transaction. It must use tx (and the ctx it was
// given) for all reads and writes and must be safe to run more than once.
type TxnFunc func(ctx context.Context, tx Txn) error

// Txn is the view of the store inside a transaction.
type Txn interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	Set(ctx context.Context, collection, id string, data Doc) error
	Update(ctx context.Context, collection, id string, ops ...Op) error
}
