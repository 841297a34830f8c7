// internal/domain/models/profile.go
package models

import "time"

// Profile is the canonical, user-owned record that member copies mirror.
// The document id is the user id.
type Profile struct {
	UserID    string `bson:"_id" json:"userId"`
	Name      string `bson:"name" json:"name"`
	Bio       string `bson:"bio" json:"bio"`
	AvatarURL string `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`

	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Actor identifies the user performing an action (e.g. the author of an echo).
type Actor struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
