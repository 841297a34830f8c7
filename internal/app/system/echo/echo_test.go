package echo_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/store/docstore/memstore"
	formstore "github.com/dalemusser/circlehub/internal/app/store/forms"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/echo"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func newEngine(s docstore.Store) *echo.Engine {
	return echo.New(s, zap.NewNop(),
		echo.WithClock(func() time.Time { return fixedNow }),
		echo.WithIDGenerator(sequentialIDs()),
	)
}

func seed(t *testing.T, s docstore.Store) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, s)
	for _, id := range []string{"c1", "c2", "c3"} {
		fx.CreateCommunity(ctx, id, "Community "+id)
	}
	fx.CreateForm(ctx, "f1", "c1", "u1", "hello world")
}

func TestEcho(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New()
	seed(t, s)

	actor := models.Actor{UserID: "u2", Name: "Bo", AvatarURL: "https://img/bo.png"}
	res, err := newEngine(s).Echo(ctx, "c1", "f1", "c2", actor)
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
	if res.NewFormID != "e1" {
		t.Errorf("NewFormID: got %q, want e1", res.NewFormID)
	}

	forms := formstore.New(s)
	got, err := forms.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get echo failed: %v", err)
	}
	if got.CommunityID != "c2" || got.OriginFormID != "f1" || got.OriginCommunityID != "c1" {
		t.Errorf("provenance: %+v", got)
	}
	if got.UserID != "u2" || got.UserName != "Bo" || got.UserAvatarURL != "https://img/bo.png" {
		t.Errorf("author fields: %+v", got)
	}
	if got.Text != "hello world" {
		t.Errorf("text: got %q", got.Text)
	}
	if got.EchoCount != 0 {
		t.Errorf("new echo echoCount: got %d, want 0", got.EchoCount)
	}
	if !got.CreatedAt.Equal(fixedNow) || got.LastEchoAt == nil || !got.LastEchoAt.Equal(fixedNow) {
		t.Errorf("timestamps: createdAt=%v lastEchoAt=%v", got.CreatedAt, got.LastEchoAt)
	}

	src, _ := forms.Get(ctx, "f1")
	if src.EchoCount != 1 {
		t.Errorf("source echoCount: got %d, want 1", src.EchoCount)
	}
	if src.LastEchoAt == nil || !src.LastEchoAt.Equal(fixedNow) {
		t.Errorf("source lastEchoAt: %v", src.LastEchoAt)
	}
	if src.UserID != "u1" || src.CommunityID != "c1" {
		t.Errorf("source form rewritten: %+v", src)
	}
}

func TestEcho_ProvenanceFlattens(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New()
	seed(t, s)
	eng := newEngine(s)
	actor := models.Actor{UserID: "u2", Name: "Bo"}

	first, err := eng.Echo(ctx, "c1", "f1", "c2", actor)
	if err != nil {
		t.Fatalf("first echo failed: %v", err)
	}
	second, err := eng.Echo(ctx, "c2", first.NewFormID, "c3", actor)
	if err != nil {
		t.Fatalf("echo of echo failed: %v", err)
	}
	third, err := eng.Echo(ctx, "c3", second.NewFormID, "c1", actor)
	if err != nil {
		t.Fatalf("third hop failed: %v", err)
	}

	forms := formstore.New(s)
	for _, id := range []string{first.NewFormID, second.NewFormID, third.NewFormID} {
		f, err := forms.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s failed: %v", id, err)
		}
		if f.OriginFormID != "f1" || f.OriginCommunityID != "c1" {
			t.Errorf("%s points at %s/%s, want root f1/c1", id, f.OriginCommunityID, f.OriginFormID)
		}
	}

	// echoCount is per direct echo, not transitive.
	want := map[string]int64{"f1": 1, first.NewFormID: 1, second.NewFormID: 1, third.NewFormID: 0}
	for id, n := range want {
		f, _ := forms.Get(ctx, id)
		if f.EchoCount != n {
			t.Errorf("%s echoCount: got %d, want %d", id, f.EchoCount, n)
		}
	}
}

func TestEcho_CounterMatchesEchoes(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New(memstore.WithMaxAttempts(100))
	seed(t, s)
	eng := echo.New(s, zap.NewNop())

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := "c2"
			if i%2 == 1 {
				target = "c3"
			}
			_, err := eng.Echo(ctx, "c1", "f1", target, models.Actor{UserID: fmt.Sprintf("u%d", i), Name: "User"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent echo failed: %v", err)
		}
	}

	forms := formstore.New(s)
	src, _ := forms.Get(ctx, "f1")
	if src.EchoCount != n {
		t.Errorf("echoCount: got %d, want %d", src.EchoCount, n)
	}
	c2, _ := forms.ListByCommunity(ctx, "c2")
	c3, _ := forms.ListByCommunity(ctx, "c3")
	if len(c2)+len(c3) != n {
		t.Errorf("echo documents: got %d, want %d", len(c2)+len(c3), n)
	}
}

func TestEcho_NotFound(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New()
	seed(t, s)
	eng := newEngine(s)
	actor := models.Actor{UserID: "u2", Name: "Bo"}

	tests := []struct {
		name                       string
		srcCommunity, form, target string
	}{
		{"missing form", "c1", "nope", "c2"},
		{"form in another community", "c3", "f1", "c2"},
		{"missing target community", "c1", "f1", "nowhere"},
	}
	writes := s.Writes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Echo(ctx, tt.srcCommunity, tt.form, tt.target, actor)
			if !apperr.IsNotFound(err) {
				t.Errorf("expected not_found, got %v", err)
			}
		})
	}
	if s.Writes() != writes {
		t.Errorf("failed echoes wrote %d documents", s.Writes()-writes)
	}
	src, _ := formstore.New(s).Get(ctx, "f1")
	if src.EchoCount != 0 || src.LastEchoAt != nil {
		t.Errorf("source form modified: %+v", src)
	}
}

func TestEcho_Validation(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New()
	seed(t, s)
	eng := newEngine(s)
	bo := models.Actor{UserID: "u2", Name: "Bo"}

	tests := []struct {
		name                       string
		srcCommunity, form, target string
		actor                      models.Actor
	}{
		{"same community", "c1", "f1", "c1", bo},
		{"no source community", "", "f1", "c2", bo},
		{"no form", "c1", "", "c2", bo},
		{"no target", "c1", "f1", "", bo},
		{"no actor", "c1", "f1", "c2", models.Actor{}},
		{"actor without name", "c1", "f1", "c2", models.Actor{UserID: "u2"}},
	}
	writes := s.Writes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Echo(ctx, tt.srcCommunity, tt.form, tt.target, tt.actor)
			if !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if s.Writes() != writes {
		t.Errorf("rejected echoes wrote %d documents", s.Writes()-writes)
	}
}

func TestEcho_CarriesUnmodelledFields(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := memstore.New()
	seed(t, s)

	if err := s.Set(ctx, formstore.Collection, "f2", docstore.Doc{
		"communityId": "c1",
		"userId":      "u1",
		"userName":    "Alice",
		"text":        "with attachments",
		"createdAt":   fixedNow.Add(-time.Hour),
		"echoCount":   int64(0),
		"mood":        "curious",
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	res, err := newEngine(s).Echo(ctx, "c1", "f2", "c2", models.Actor{UserID: "u2", Name: "Bo"})
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
	d, err := s.Get(ctx, formstore.Collection, res.NewFormID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d["mood"] != "curious" {
		t.Errorf("mood: got %v, want curious", d["mood"])
	}
	if _, ok := d["userAvatarUrl"]; ok {
		t.Error("userAvatarUrl should be absent when the actor has none")
	}
}
