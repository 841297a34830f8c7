package forms_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/features/forms"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	formstore "github.com/dalemusser/circlehub/internal/app/store/forms"
	"github.com/dalemusser/circlehub/internal/app/system/echo"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*memstore.Store, http.Handler) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ds := memstore.New()
	fx := testutil.NewFixtures(t, ds)
	fx.CreateCommunity(ctx, "c1", "One")
	fx.CreateCommunity(ctx, "c2", "Two")
	fx.CreateForm(ctx, "f1", "c1", "u1", "hello")

	h := forms.NewHandler(ds, echo.New(ds, zap.NewNop()), nil, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/communities/{communityID}/forms", forms.Routes(h))
	return ds, r
}

func TestServeForm(t *testing.T) {
	_, router := setup(t)

	rec := testutil.Serve(router, testutil.NewJSONRequest(t, "GET", "/communities/c1/forms/f1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var f models.Form
	testutil.DecodeJSON(t, rec, &f)
	if f.ID != "f1" || f.Text != "hello" {
		t.Errorf("unexpected form: %+v", f)
	}

	rec = testutil.Serve(router, testutil.NewJSONRequest(t, "GET", "/communities/c2/forms/f1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("form from another community: expected 404, got %d", rec.Code)
	}
}

func TestHandleEcho(t *testing.T) {
	ds, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewJSONRequest(t, "POST", "/communities/c1/forms/f1/echo", map[string]string{"targetCommunityId": "c2"})
	rec := testutil.Serve(router, testutil.AsUser(req, "u2", "Bo", "member"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res echo.Result
	testutil.DecodeJSON(t, rec, &res)

	echoed, err := formstore.New(ds).Get(ctx, res.NewFormID)
	if err != nil {
		t.Fatalf("echo not stored: %v", err)
	}
	if echoed.CommunityID != "c2" || echoed.UserID != "u2" || echoed.UserName != "Bo" || echoed.OriginFormID != "f1" {
		t.Errorf("unexpected echo: %+v", echoed)
	}

	rec = testutil.Serve(router, testutil.NewJSONRequest(t, "GET", "/communities/c2/forms/", nil))
	var list []models.Form
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != res.NewFormID {
		t.Errorf("c2 feed: %+v", list)
	}
}

func TestHandleEcho_Errors(t *testing.T) {
	_, router := setup(t)

	tests := []struct {
		name   string
		path   string
		target string
		signed bool
		want   int
	}{
		{"signed out", "/communities/c1/forms/f1/echo", "c2", false, http.StatusUnauthorized},
		{"same community", "/communities/c1/forms/f1/echo", "c1", true, http.StatusBadRequest},
		{"missing form", "/communities/c1/forms/nope/echo", "c2", true, http.StatusNotFound},
		{"missing target", "/communities/c1/forms/f1/echo", "c9", true, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, "POST", tt.path, map[string]string{"targetCommunityId": tt.target})
			if tt.signed {
				req = testutil.AsUser(req, "u2", "Bo", "member")
			}
			rec := testutil.Serve(router, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
