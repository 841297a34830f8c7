// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range []struct {
		name   string
		ensure func(context.Context, *mongo.Database) error
	}{
		{"communities", ensureCommunities},
		{"columns", ensureColumns},
		{"forms", ensureForms},
		{"audit_events", ensureAuditEvents},
	} {
		if err := set.ensure(ctx, db); err != nil {
			problems = append(problems, set.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet makes each desired index exist with the desired name and
// uniqueness. An index with the same keys but a different name or
// uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
		}

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				zap.L().Debug("reusing existing index", fields...)
				continue
			}
			zap.L().Info("replacing index", append(fields, zap.String("existing_name", ex.Name))...)
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured", append(fields,
			zap.String("created_name", created),
			zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureCommunities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("communities"), []mongo.IndexModel{
		// Which communities a user belongs to (materialized members).
		{
			Keys:    bson.D{{Key: "members.userId", Value: 1}},
			Options: options.Index().SetName("idx_communities_members_userid"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index().SetName("idx_communities_owner"),
		},
	})
}

func ensureColumns(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("columns"), []mongo.IndexModel{
		// Board lookup for community-scoped columns; standalone roadmap
		// columns have no communityId and stay out of the index.
		{
			Keys: bson.D{{Key: "communityId", Value: 1}},
			Options: options.Index().SetName("idx_columns_community").
				SetPartialFilterExpression(bson.M{"communityId": bson.M{"$exists": true}}),
		},
	})
}

func ensureForms(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("forms"), []mongo.IndexModel{
		// Community feed, newest first.
		{
			Keys:    bson.D{{Key: "communityId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_forms_community_created"),
		},
		// All echoes of a root form.
		{
			Keys: bson.D{{Key: "originFormId", Value: 1}},
			Options: options.Index().SetName("idx_forms_origin").
				SetPartialFilterExpression(bson.M{"originFormId": bson.M{"$exists": true}}),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_type_created"),
		},
	})
}
