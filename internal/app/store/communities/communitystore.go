// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	Collection = "communities"
	// MembersField is rewritten wholesale on membership changes.
	MembersField = "members"
)

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Get(ctx context.Context, id string) (models.Community, error) {
	d, err := s.ds.Get(ctx, Collection, id)
	if err != nil {
		return models.Community{}, err
	}
	return Decode(d)
}

func (s *Store) List(ctx context.Context) ([]models.Community, error) {
	docs, err := s.ds.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	out := make([]models.Community, 0, len(docs))
	for _, d := range docs {
		c, err := Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Create stores a new community, assigning an id when c.ID is empty.
func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Members == nil {
		c.Members = []models.Member{}
	}
	c.CreatedAt = time.Now().UTC()
	d, err := docstore.Encode(c)
	if err != nil {
		return models.Community{}, err
	}
	if err := s.ds.Set(ctx, Collection, c.ID, d); err != nil {
		return models.Community{}, err
	}
	return c, nil
}

// AddMember appends m to the community's members unless an equal element is
// already present.
func (s *Store) AddMember(ctx context.Context, communityID string, m models.Member) error {
	return s.ds.Update(ctx, Collection, communityID, docstore.ArrayUnion(MembersField, m))
}

// MembersOp returns the update that replaces the whole members array with
// the stored elements in arr.
func MembersOp(arr bson.A) docstore.Op {
	return docstore.SetField(MembersField, arr)
}

// Decode converts a stored document into a Community.
func Decode(d docstore.Doc) (models.Community, error) {
	var c models.Community
	if err := docstore.Decode(d, &c); err != nil {
		return models.Community{}, err
	}
	return c, nil
}
