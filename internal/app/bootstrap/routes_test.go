package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func memoryApp(t *testing.T) (DBDeps, http.Handler) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validConfig()
	appCfg.StoreBackend = backendMemory
	appCfg.AuditLogSync = "off"
	logger := zap.NewNop()

	deps, err := ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	t.Cleanup(func() {
		if err := Shutdown(context.Background(), coreCfg, appCfg, deps, logger); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return deps, h
}

func withCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestBuildHandler_Health(t *testing.T) {
	_, h := memoryApp(t)

	rec := testutil.Serve(h, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildHandler_SessionFlow(t *testing.T) {
	deps, h := memoryApp(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, deps.Store)
	fx.CreateCommunity(ctx, "c1", "One", models.Reference("u1"))

	signIn := testutil.Serve(h, testutil.NewJSONRequest(t, "POST", "/dev/signin",
		map[string]string{"id": "u1", "name": "Ann", "role": "member"}))
	if signIn.Code != http.StatusNoContent {
		t.Fatalf("sign-in: expected 204, got %d: %s", signIn.Code, signIn.Body.String())
	}

	// Signed out requests are rejected.
	rec := testutil.Serve(h, testutil.NewJSONRequest(t, "PUT", "/profile", map[string]string{"name": "Ann"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("signed out: expected 401, got %d", rec.Code)
	}

	req := withCookies(testutil.NewJSONRequest(t, "PUT", "/profile", map[string]string{"name": "Ann", "bio": "hello"}), signIn)
	rec = testutil.Serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = testutil.Serve(h, httptest.NewRequest("GET", "/communities/c1/members", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("members: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []models.MemberRecord
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 1 || got[0].Name != "Ann" || got[0].Bio != "hello" {
		t.Errorf("unexpected members: %+v", got)
	}

	// Members may not trigger operator reconciliation.
	rec = testutil.Serve(h, withCookies(httptest.NewRequest("POST", "/admin/reconcile/", nil), signIn))
	if rec.Code != http.StatusForbidden {
		t.Errorf("reconcile as member: expected 403, got %d", rec.Code)
	}
}
