// internal/domain/models/community.go
package models

import "time"

// Community owns its entire members array; membership changes rewrite it wholesale.
type Community struct {
	ID      string   `bson:"_id" json:"id"`
	Name    string   `bson:"name" json:"name"`
	OwnerID string   `bson:"ownerId" json:"ownerId"`
	Members []Member `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
