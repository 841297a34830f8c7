// internal/domain/models/column.go
package models

// Column is a kanban container. A standalone roadmap column has no CommunityID.
//
// NOTE:
//   - A card id lives in exactly one column's Cards at any quiescent moment.
//     Moves go through cardmove, never through direct array rewrites.
type Column struct {
	ID          string `bson:"_id" json:"id"`
	CommunityID string `bson:"communityId,omitempty" json:"communityId,omitempty"`
	Title       string `bson:"title" json:"title"`
	Cards       []Card `bson:"cards" json:"cards"`
}

// Card is embedded by value in a Column.
type Card struct {
	ID          string   `bson:"id" json:"id"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	Tags        []string `bson:"tags" json:"tags"`
	Assignees   []string `bson:"assignees" json:"assignees"`
}

// CardIndex returns the position of the card with the given id, or -1.
func (c Column) CardIndex(cardID string) int {
	for i, card := range c.Cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}
