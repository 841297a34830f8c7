// internal/app/store/audit/store.go
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/google/uuid"
)

// Collection holds audit events.
const Collection = "audit_events"

// Event categories
const (
	CategorySync    = "sync"
	CategoryProfile = "profile"
)

// Sync event types
const (
	EventReconcileRun  = "reconcile_run"
	EventCardMoved     = "card_moved"
	EventFormEchoed    = "form_echoed"
	EventAIMemberAdded = "ai_member_added"
)

// Profile event types
const (
	EventProfileUpdated = "profile_updated"
)

// Event represents an audit event.
type Event struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	ActorID     string `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	CommunityID string `bson:"community_id,omitempty" json:"communityId,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// Store manages audit event records.
type Store struct {
	ds docstore.Store
}

// New creates a new audit Store.
func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

// Log records an event, filling in its id and timestamp when unset.
func (s *Store) Log(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	d, err := docstore.Encode(e)
	if err != nil {
		return err
	}
	return s.ds.Set(ctx, Collection, e.ID, d)
}

// ListByType returns events of one type, most recent first, capped at limit
// when limit > 0.
func (s *Store) ListByType(ctx context.Context, eventType string, limit int) ([]Event, error) {
	docs, err := s.ds.FindBy(ctx, Collection, "event_type", eventType)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(docs))
	for _, d := range docs {
		var e Event
		if err := docstore.Decode(d, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
