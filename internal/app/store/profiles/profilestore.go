// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// Collection holds one canonical Profile per user, keyed by user id.
const Collection = "profiles"

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Get(ctx context.Context, userID string) (models.Profile, error) {
	d, err := s.ds.Get(ctx, Collection, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return Decode(d)
}

// List returns every profile. Used by full reconciliation scans.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	docs, err := s.ds.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(docs))
	for _, d := range docs {
		p, err := Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Upsert writes the whole profile. Name and bio are trimmed.
func (s *Store) Upsert(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Bio = strings.TrimSpace(p.Bio)
	p.UpdatedAt = time.Now().UTC()
	d, err := docstore.Encode(p)
	if err != nil {
		return models.Profile{}, err
	}
	if err := s.ds.Set(ctx, Collection, p.UserID, d); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Decode converts a stored document into a Profile.
func Decode(d docstore.Doc) (models.Profile, error) {
	var p models.Profile
	if err := docstore.Decode(d, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
