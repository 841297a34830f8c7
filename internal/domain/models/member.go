// internal/domain/models/member.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MemberType distinguishes people from generated personas.
type MemberType string

const (
	MemberHuman MemberType = "human"
	MemberAI    MemberType = "ai"
)

// MemberRecord is the fully materialized form of a community member.
// UserID is empty for members with no canonical profile (e.g. AI personas).
type MemberRecord struct {
	UserID    string     `bson:"userId,omitempty" json:"userId,omitempty"`
	Name      string     `bson:"name" json:"name"`
	Bio       string     `bson:"bio" json:"bio"`
	Role      string     `bson:"role" json:"role"`
	Type      MemberType `bson:"type" json:"type"`
	AvatarURL string     `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
}

// Member is an element of a community's members array. It is either a
// reference (a bare user id, stored as a string) or a materialized record
// (stored as an embedded document).
type Member struct {
	ref string
	rec *MemberRecord
}

// Reference returns a lazy member that only names a user.
func Reference(userID string) Member {
	return Member{ref: userID}
}

// Materialized returns a member carrying its own copy of the display fields.
func Materialized(rec MemberRecord) Member {
	return Member{rec: &rec}
}

// IsReference reports whether m is the bare-id form.
func (m Member) IsReference() bool {
	return m.rec == nil
}

// UserID returns the referenced or recorded user id (may be empty).
func (m Member) UserID() string {
	if m.rec != nil {
		return m.rec.UserID
	}
	return m.ref
}

// Record returns a copy of the materialized record.
func (m Member) Record() (MemberRecord, bool) {
	if m.rec == nil {
		return MemberRecord{}, false
	}
	return *m.rec, true
}

// MarshalBSONValue stores references as strings and records as documents.
func (m Member) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if m.rec == nil {
		return bson.MarshalValue(m.ref)
	}
	return bson.MarshalValue(*m.rec)
}

// UnmarshalBSONValue accepts either storage form.
func (m *Member) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.String:
		s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
		if !ok {
			return fmt.Errorf("member: malformed string reference")
		}
		*m = Reference(s)
	case bsontype.EmbeddedDocument:
		var rec MemberRecord
		if err := bson.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("member: %w", err)
		}
		*m = Materialized(rec)
	case bsontype.Null, bsontype.Undefined:
		*m = Member{}
	default:
		return fmt.Errorf("member: unsupported bson type %s", t)
	}
	return nil
}

// MarshalJSON mirrors the BSON layout.
func (m Member) MarshalJSON() ([]byte, error) {
	if m.rec == nil {
		return json.Marshal(m.ref)
	}
	return json.Marshal(*m.rec)
}

// UnmarshalJSON accepts a string or an object.
func (m *Member) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Reference(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*m = Member{}
		return nil
	}
	var rec MemberRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*m = Materialized(rec)
	return nil
}
