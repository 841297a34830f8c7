package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/indexes"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"communities":  {"idx_communities_members_userid", "idx_communities_owner"},
		"columns":      {"idx_columns_community"},
		"forms":        {"idx_forms_community_created", "idx_forms_origin"},
		"audit_events": {"idx_audit_created", "idx_audit_type_created"},
	}
	for coll, names := range expected {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s collection", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("communities").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetName("legacy_owner"),
	})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, ctx, db, "communities")
	if got["legacy_owner"] || !got["idx_communities_owner"] {
		t.Errorf("expected legacy_owner replaced by idx_communities_owner, got %v", got)
	}
}
