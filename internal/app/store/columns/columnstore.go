// internal/app/store/columns/columnstore.go
package columnstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	Collection = "columns"
	CardsField = "cards"
)

// cardFieldOrder is the order models.Card encodes its fields in.
var cardFieldOrder = []string{"id", "title", "description", "tags", "assignees"}

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Get(ctx context.Context, id string) (models.Column, error) {
	d, err := s.ds.Get(ctx, Collection, id)
	if err != nil {
		return models.Column{}, err
	}
	return Decode(d)
}

// Create stores a new column. Cards without ids are given one.
func (s *Store) Create(ctx context.Context, c models.Column) (models.Column, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Cards == nil {
		c.Cards = []models.Card{}
	}
	for i := range c.Cards {
		if c.Cards[i].ID == "" {
			c.Cards[i].ID = uuid.NewString()
		}
	}
	d, err := docstore.Encode(c)
	if err != nil {
		return models.Column{}, err
	}
	if err := s.ds.Set(ctx, Collection, c.ID, d); err != nil {
		return models.Column{}, err
	}
	return c, nil
}

// AddCard appends a new card to a column.
func (s *Store) AddCard(ctx context.Context, columnID string, card models.Card) (models.Card, error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.Tags == nil {
		card.Tags = []string{}
	}
	if card.Assignees == nil {
		card.Assignees = []string{}
	}
	if err := s.ds.Update(ctx, Collection, columnID, docstore.ArrayUnion(CardsField, card)); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// Decode converts a stored document into a Column.
func Decode(d docstore.Doc) (models.Column, error) {
	var c models.Column
	if err := docstore.Decode(d, &c); err != nil {
		return models.Column{}, err
	}
	return c, nil
}

// OrderedCard rebuilds a stored card element as a bson.D with its keys in the
// order models.Card writes them, followed by any other keys sorted by name.
// MongoDB compares embedded documents key by key in order, so $addToSet only
// recognises a card already in the array when the order matches.
func OrderedCard(el any) (bson.D, error) {
	m, ok := el.(bson.M)
	if !ok {
		return nil, fmt.Errorf("columnstore: card element is %T, not a document", el)
	}
	out := make(bson.D, 0, len(m))
	known := make(map[string]bool, len(cardFieldOrder))
	for _, k := range cardFieldOrder {
		known[k] = true
		if v, ok := m[k]; ok {
			out = append(out, bson.E{Key: k, Value: v})
		}
	}
	var extra []string
	for k := range m {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, bson.E{Key: k, Value: m[k]})
	}
	return out, nil
}
