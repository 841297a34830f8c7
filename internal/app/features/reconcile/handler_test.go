package reconcile_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/features/reconcile"
	"github.com/dalemusser/circlehub/internal/app/store/audit"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	"github.com/dalemusser/circlehub/internal/app/system/auditlog"
	syncreconcile "github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func drifted(userID, name string) models.Member {
	return models.Materialized(models.MemberRecord{UserID: userID, Name: name, Role: "member", Type: models.MemberHuman})
}

func TestServeAll(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ds := memstore.New()
	fx := testutil.NewFixtures(t, ds)
	fx.CreateProfile(ctx, "u1", "Alice2", "", "")
	fx.CreateCommunity(ctx, "c1", "One", drifted("u1", "Alice"))

	auditStore := audit.New(ds)
	h := reconcile.NewHandler(
		syncreconcile.New(ds, zap.NewNop(), syncreconcile.Config{}),
		auditlog.New(auditStore, zap.NewNop(), auditlog.Config{Sync: "db"}),
		zap.NewNop(),
	)

	req := testutil.AsUser(testutil.NewJSONRequest(t, "POST", "/", nil), "admin1", "Admin", "admin")
	rec := testutil.Serve(reconcile.Routes(h), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res syncreconcile.Result
	testutil.DecodeJSON(t, rec, &res)
	if res.IssuesFixed != 1 || res.CommunitiesScanned != 1 {
		t.Errorf("unexpected result: %+v", res)
	}

	events, _ := auditStore.ListByType(ctx, audit.EventReconcileRun, 0)
	if len(events) != 1 || events[0].ActorID != "admin1" {
		t.Errorf("expected one audit event by admin1, got %+v", events)
	}
}

func TestServeUser_NotFound(t *testing.T) {
	ds := memstore.New()
	h := reconcile.NewHandler(syncreconcile.New(ds, zap.NewNop(), syncreconcile.Config{}), nil, zap.NewNop())

	rec := testutil.Serve(reconcile.Routes(h), testutil.NewJSONRequest(t, "POST", "/users/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	if body["kind"] != "not_found" {
		t.Errorf("kind: got %q", body["kind"])
	}
}

func TestServeAll_PartialFailureReportsResult(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	calls := 0
	ds := memstore.New(memstore.WithCommitHook(func(int) error {
		calls++
		if calls == 2 {
			return errors.New("connection reset")
		}
		return nil
	}))
	fx := testutil.NewFixtures(t, ds)
	fx.CreateProfile(ctx, "u1", "Alice2", "", "")
	fx.CreateCommunity(ctx, "c1", "One", drifted("u1", "Alice"))
	fx.CreateCommunity(ctx, "c2", "Two", drifted("u1", "Alice"))

	h := reconcile.NewHandler(syncreconcile.New(ds, zap.NewNop(), syncreconcile.Config{BatchSize: 1}), nil, zap.NewNop())
	rec := testutil.Serve(reconcile.Routes(h), testutil.NewJSONRequest(t, "POST", "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Kind   string               `json:"kind"`
		Result syncreconcile.Result `json:"result"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Kind != "store_unavailable" || body.Result.ChunksCommitted != 1 || body.Result.ChunksTotal != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}
