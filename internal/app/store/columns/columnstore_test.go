package columnstore_test

import (
	"testing"

	columnstore "github.com/dalemusser/circlehub/internal/app/store/columns"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	"github.com/dalemusser/circlehub/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOrderedCard(t *testing.T) {
	el := bson.M{
		"priority":    "high",
		"assignees":   bson.A{"u1"},
		"title":       "Write docs",
		"id":          "k1",
		"description": "",
		"estimate":    int32(3),
		"tags":        bson.A{},
	}

	got, err := columnstore.OrderedCard(el)
	if err != nil {
		t.Fatalf("OrderedCard: %v", err)
	}
	want := bson.D{
		{Key: "id", Value: "k1"},
		{Key: "title", Value: "Write docs"},
		{Key: "description", Value: ""},
		{Key: "tags", Value: bson.A{}},
		{Key: "assignees", Value: bson.A{"u1"}},
		{Key: "estimate", Value: int32(3)},
		{Key: "priority", Value: "high"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OrderedCard mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedCard_MissingKeysStayMissing(t *testing.T) {
	got, err := columnstore.OrderedCard(bson.M{"title": "T", "id": "k1"})
	if err != nil {
		t.Fatalf("OrderedCard: %v", err)
	}
	want := bson.D{{Key: "id", Value: "k1"}, {Key: "title", Value: "T"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OrderedCard mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedCard_RejectsNonDocument(t *testing.T) {
	if _, err := columnstore.OrderedCard("k1"); err == nil {
		t.Fatal("expected error for a non-document element")
	}
}

func TestOrderedCard_UnionDoesNotDouble(t *testing.T) {
	s := memstore.New()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, s)
	fx.CreateColumn(ctx, "done", "Done", testutil.Card("k1", "Write docs"))

	d, err := s.Get(ctx, columnstore.Collection, "done")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	el, idx := docstore.FindElement(d, columnstore.CardsField, "id", "k1")
	if idx < 0 {
		t.Fatal("card k1 not found")
	}
	ordered, err := columnstore.OrderedCard(el)
	if err != nil {
		t.Fatalf("OrderedCard: %v", err)
	}
	if err := s.Update(ctx, columnstore.Collection, "done", docstore.ArrayUnion(columnstore.CardsField, ordered)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	col, err := columnstore.New(s).Get(ctx, "done")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(col.Cards) != 1 {
		t.Errorf("done holds %d cards, want 1", len(col.Cards))
	}
}
