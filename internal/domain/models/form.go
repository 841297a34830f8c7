// internal/domain/models/form.go
package models

import "time"

// Form is a post shared in a community. An echo is a Form in another community
// whose OriginFormID/OriginCommunityID name the root of the echo chain.
type Form struct {
	ID                string `bson:"_id" json:"id"`
	CommunityID       string `bson:"communityId" json:"communityId"`
	OriginFormID      string `bson:"originFormId,omitempty" json:"originFormId,omitempty"`
	OriginCommunityID string `bson:"originCommunityId,omitempty" json:"originCommunityId,omitempty"`

	UserID        string `bson:"userId" json:"userId"`
	UserName      string `bson:"userName" json:"userName"`
	UserAvatarURL string `bson:"userAvatarUrl,omitempty" json:"userAvatarUrl,omitempty"`

	Text     string `bson:"text" json:"text"`
	Audience string `bson:"audience,omitempty" json:"audience,omitempty"`

	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	EchoCount  int64      `bson:"echoCount" json:"echoCount"`
	LastEchoAt *time.Time `bson:"lastEchoAt,omitempty" json:"lastEchoAt,omitempty"`
}

// IsEcho reports whether the form was produced by echoing another form.
func (f Form) IsEcho() bool {
	return f.OriginFormID != ""
}
