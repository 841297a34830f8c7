// Package txn runs MongoDB multi-document transactions.
//
// Run retries the whole callback when the server labels a failure as a
// TransientTransactionError (write conflicts, primary step-downs) and retries
// the commit alone on UnknownTransactionCommitResult, both within one attempt
// budget. Standalone servers do not support transactions; Run can fall back to
// executing the callback directly, which gives up atomicity, so the fallback
// is opt-in and intended for local development only.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// DefaultMaxAttempts is used when Options.MaxAttempts is not positive.
const DefaultMaxAttempts = 5

// ErrRetryBudget is returned when every attempt hit a transient conflict.
var ErrRetryBudget = errors.New("txn: retry budget exhausted")

// Options tunes Run.
type Options struct {
	MaxAttempts int
	// AllowStandalone runs fn without a transaction when the server does not
	// support them.
	AllowStandalone bool
}

// Run executes fn inside a transaction on a fresh session. fn must perform all
// of its operations with the ctx it receives and must be safe to re-run.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, opts Options, fn func(ctx context.Context) error) error {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sess.StartTransaction(txnOpts); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = sess.AbortTransaction(context.Background())
				return err
			}
			return commit(sc, sess, maxAttempts)
		})
		if err == nil {
			return nil
		}

		if IsNotSupported(err) {
			if !opts.AllowStandalone {
				return err
			}
			log.Warn("transactions not supported by server; running without atomicity", zap.Error(err))
			return fn(ctx)
		}
		if !IsTransient(err) {
			return err
		}
		log.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))
	}
	return ErrRetryBudget
}

func commit(sc mongo.SessionContext, sess mongo.Session, maxAttempts int) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		err = sess.CommitTransaction(sc)
		if err == nil || !hasLabel(err, "UnknownTransactionCommitResult") {
			return err
		}
	}
	return err
}

// IsTransient reports whether the whole transaction may be retried.
func IsTransient(err error) bool {
	return hasLabel(err, "TransientTransactionError")
}

func hasLabel(err error, label string) bool {
	if err == nil {
		return false
	}
	var le mongo.LabeledError
	if errors.As(err, &le) {
		return le.HasErrorLabel(label)
	}
	return false
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone server, unsupported storage engine).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, transaction-incompatible commands
			return true
		}
	}
	s := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(s, kw) {
			hits++
		}
	}
	return hits >= 2
}
