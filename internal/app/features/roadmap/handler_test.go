package roadmap_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/features/roadmap"
	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	"github.com/dalemusser/circlehub/internal/app/system/cardmove"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*memstore.Store, *audit.Store, http.Handler) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ds := memstore.New()
	fx := testutil.NewFixtures(t, ds)
	fx.CreateColumn(ctx, "todo", "To do", testutil.Card("k1", "One"))
	fx.CreateColumn(ctx, "done", "Done")

	auditStore := audit.New(ds)
	h := roadmap.NewHandler(ds, cardmove.New(ds, zap.NewNop()), auditlog.New(auditStore, zap.NewNop(), auditlog.Config{Sync: "db"}), zap.NewNop())
	return ds, auditStore, roadmap.Routes(h)
}

func TestServeColumn(t *testing.T) {
	_, _, router := setup(t)

	rec := testutil.Serve(router, testutil.NewJSONRequest(t, "GET", "/todo", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var col models.Column
	testutil.DecodeJSON(t, rec, &col)
	if col.ID != "todo" || len(col.Cards) != 1 || col.Cards[0].ID != "k1" {
		t.Errorf("unexpected column: %+v", col)
	}

	rec = testutil.Serve(router, testutil.NewJSONRequest(t, "GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing column: expected 404, got %d", rec.Code)
	}
}

func TestHandleMove(t *testing.T) {
	_, auditStore, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	move := func() *cardmove.Result {
		req := testutil.NewJSONRequest(t, "POST", "/todo/cards/k1/move", map[string]string{"targetColumnId": "done"})
		rec := testutil.Serve(router, testutil.AsUser(req, "u1", "Alice", "member"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var res cardmove.Result
		testutil.DecodeJSON(t, rec, &res)
		return &res
	}

	if !move().Moved {
		t.Error("first move should report moved")
	}
	if move().Moved {
		t.Error("second move should be a benign no-op")
	}

	events, _ := auditStore.ListByType(ctx, audit.EventCardMoved, 0)
	if len(events) != 2 {
		t.Errorf("expected 2 audit events, got %d", len(events))
	}
}

func TestHandleMove_Errors(t *testing.T) {
	_, _, router := setup(t)

	tests := []struct {
		name   string
		path   string
		body   any
		signed bool
		want   int
	}{
		{"signed out", "/todo/cards/k1/move", map[string]string{"targetColumnId": "done"}, false, http.StatusUnauthorized},
		{"missing target column", "/todo/cards/k1/move", map[string]string{"targetColumnId": "nope"}, true, http.StatusNotFound},
		{"missing source column", "/nope/cards/k1/move", map[string]string{"targetColumnId": "done"}, true, http.StatusNotFound},
		{"no target given", "/todo/cards/k1/move", map[string]string{}, true, http.StatusBadRequest},
		{"bad body", "/todo/cards/k1/move", nil, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, "POST", tt.path, tt.body)
			if tt.signed {
				req = testutil.AsUser(req, "u1", "Alice", "member")
			}
			rec := testutil.Serve(router, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
