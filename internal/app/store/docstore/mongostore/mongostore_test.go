package mongostore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	columnstore "github.com/dalemusser/circlehub/internal/app/store/columns"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/mongostore"
	"github.com/dalemusser/circlehub/internal/app/system/cardmove"
	"github.com/dalemusser/circlehub/internal/app/system/txn"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *mongostore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return mongostore.New(db.Client(), db, zap.NewNop(), txn.Options{MaxAttempts: 3, AllowStandalone: true})
}

func TestStore_CRUD(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Get(ctx, "forms", "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	if err := s.Update(ctx, "forms", "missing", docstore.Increment("echoCount", 1)); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "forms", "f1", docstore.Doc{"communityId": "c1", "echoCount": int64(0), "tags": []any{"a"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := s.Update(ctx, "forms", "f1",
		docstore.Increment("echoCount", 2),
		docstore.ArrayUnion("tags", "a", "b"),
		docstore.SetField("text", "hi"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	d, err := s.Get(ctx, "forms", "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n, _ := d["echoCount"].(int64); n != 2 {
		t.Errorf("echoCount = %v, want 2", d["echoCount"])
	}
	if d["text"] != "hi" {
		t.Errorf("text = %v", d["text"])
	}

	found, err := s.FindBy(ctx, "forms", "communityId", "c1")
	if err != nil || len(found) != 1 {
		t.Fatalf("FindBy: %d docs, err %v", len(found), err)
	}
}

func TestStore_TransactionAbortsOnError(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestStore_MoveCard(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, s)
	fx.CreateColumn(ctx, "todo", "To do", testutil.Card("k1", "Write docs"))
	fx.CreateColumn(ctx, "done", "Done")

	res, err := cardmove.New(s, zap.NewNop()).MoveCard(ctx, "todo", "done", "k1")
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if !res.Moved {
		t.Fatal("expected card to move")
	}
	done, err := columnstore.New(s).Get(ctx, "done")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(done.Cards) != 1 || done.Cards[0].ID != "k1" {
		t.Errorf("done cards = %+v", done.Cards)
	}
}

func TestStore_MoveCardIntoColumnAlreadyHoldingIt(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, s)
	card := testutil.Card("k1", "Write docs")
	card.Tags = []string{"docs"}
	card.Assignees = []string{"u1"}
	fx.CreateColumn(ctx, "todo", "To do", card)
	fx.CreateColumn(ctx, "done", "Done", card)

	res, err := cardmove.New(s, zap.NewNop()).MoveCard(ctx, "todo", "done", "k1")
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if !res.Moved {
		t.Fatal("expected card to move")
	}

	cols := columnstore.New(s)
	todo, err := cols.Get(ctx, "todo")
	if err != nil {
		t.Fatalf("Get todo: %v", err)
	}
	if len(todo.Cards) != 0 {
		t.Errorf("todo cards = %+v, want none", todo.Cards)
	}
	done, err := cols.Get(ctx, "done")
	if err != nil {
		t.Fatalf("Get done: %v", err)
	}
	if len(done.Cards) != 1 {
		t.Fatalf("done holds %d cards, want 1: %+v", len(done.Cards), done.Cards)
	}
	if diff := cmp.Diff(card, done.Cards[0]); diff != "" {
		t.Errorf("card mismatch (-want +got):\n%s", diff)
	}
}
