package testutil

import (
	"context"
	"testing"
	"time"

	communitystore "github.com/dalemusser/circlehub/internal/app/store/communities"
	columnstore "github.com/dalemusser/circlehub/internal/app/store/columns"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	formstore "github.com/dalemusser/circlehub/internal/app/store/forms"
	profilestore "github.com/dalemusser/circlehub/internal/app/store/profiles"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// TestContext returns a context with a timeout suitable for store calls in tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// Fixtures provides helper methods for creating test data in any docstore.
type Fixtures struct {
	ds docstore.Store
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, ds docstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{ds: ds, t: t}
}

// Store returns the underlying store for direct access in tests.
func (f *Fixtures) Store() docstore.Store {
	return f.ds
}

// CreateProfile stores a canonical profile.
func (f *Fixtures) CreateProfile(ctx context.Context, userID, name, bio, avatarURL string) models.Profile {
	f.t.Helper()
	p, err := profilestore.New(f.ds).Upsert(ctx, models.Profile{UserID: userID, Name: name, Bio: bio, AvatarURL: avatarURL})
	if err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// HumanMember returns a materialized human member copied from p.
func HumanMember(p models.Profile, role string) models.Member {
	return models.Materialized(models.MemberRecord{
		UserID:    p.UserID,
		Name:      p.Name,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		Role:      role,
		Type:      models.MemberHuman,
	})
}

// AIMember returns a materialized AI persona.
func AIMember(name, bio string) models.Member {
	return models.Materialized(models.MemberRecord{Name: name, Bio: bio, Role: "member", Type: models.MemberAI})
}

// CreateCommunity stores a community with the given members.
func (f *Fixtures) CreateCommunity(ctx context.Context, id, name string, members ...models.Member) models.Community {
	f.t.Helper()
	c, err := communitystore.New(f.ds).Create(ctx, models.Community{ID: id, Name: name, OwnerID: "owner", Members: members})
	if err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	return c
}

// CreateColumn stores a column holding the given cards.
func (f *Fixtures) CreateColumn(ctx context.Context, id, title string, cards ...models.Card) models.Column {
	f.t.Helper()
	c, err := columnstore.New(f.ds).Create(ctx, models.Column{ID: id, Title: title, Cards: cards})
	if err != nil {
		f.t.Fatalf("failed to create test column: %v", err)
	}
	return c
}

// Card returns a card with non-nil slices.
func Card(id, title string) models.Card {
	return models.Card{ID: id, Title: title, Description: title + " description", Tags: []string{"t1"}, Assignees: []string{}}
}

// CreateForm posts a root form in a community.
func (f *Fixtures) CreateForm(ctx context.Context, id, communityID, userID, text string) models.Form {
	f.t.Helper()
	form, err := formstore.New(f.ds).Create(ctx, models.Form{
		ID:          id,
		CommunityID: communityID,
		UserID:      userID,
		UserName:    "Author " + userID,
		Text:        text,
	})
	if err != nil {
		f.t.Fatalf("failed to create test form: %v", err)
	}
	return form
}
