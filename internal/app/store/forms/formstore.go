// internal/app/store/forms/formstore.go
package formstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
)

const (
	Collection      = "forms"
	EchoCountField  = "echoCount"
	LastEchoAtField = "lastEchoAt"
)

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Get(ctx context.Context, id string) (models.Form, error) {
	d, err := s.ds.Get(ctx, Collection, id)
	if err != nil {
		return models.Form{}, err
	}
	return Decode(d)
}

// Create posts a new root form. Echo bookkeeping fields are reset.
func (s *Store) Create(ctx context.Context, f models.Form) (models.Form, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.OriginFormID = ""
	f.OriginCommunityID = ""
	f.EchoCount = 0
	f.LastEchoAt = nil
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	d, err := docstore.Encode(f)
	if err != nil {
		return models.Form{}, err
	}
	if err := s.ds.Set(ctx, Collection, f.ID, d); err != nil {
		return models.Form{}, err
	}
	return f, nil
}

// ListByCommunity returns a community's forms, newest first.
func (s *Store) ListByCommunity(ctx context.Context, communityID string) ([]models.Form, error) {
	docs, err := s.ds.FindBy(ctx, Collection, "communityId", communityID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Form, 0, len(docs))
	for _, d := range docs {
		f, err := Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Decode converts a stored document into a Form.
func Decode(d docstore.Doc) (models.Form, error) {
	var f models.Form
	if err := docstore.Decode(d, &f); err != nil {
		return models.Form{}, err
	}
	return f, nil
}
