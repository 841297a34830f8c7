// Package members turns stored community members into display records.
//
// Resolution only reads: a reference member is filled in from its profile at
// read time and nothing is written back. Repairing stale materialized copies
// is the reconcile package's job.
package members

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	profilestore "github.com/dalemusser/circlehub/internal/app/store/profiles"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/patrickmn/go-cache"
)

// DefaultRole is the role given to reference members, which carry none.
const DefaultRole = "member"

// ProfileLookup finds a canonical profile. A missing profile is reported as
// docstore.ErrNotFound.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Resolve returns the display record for m. Materialized members are returned
// as stored. Reference members are built from their profile; when the profile
// is gone the record carries only the user id.
func Resolve(ctx context.Context, m models.Member, lookup ProfileLookup) (models.MemberRecord, error) {
	if rec, ok := m.Record(); ok {
		return rec, nil
	}
	rec := models.MemberRecord{UserID: m.UserID(), Role: DefaultRole, Type: models.MemberHuman}
	p, err := lookup.LookupProfile(ctx, m.UserID())
	if errors.Is(err, docstore.ErrNotFound) {
		return rec, nil
	}
	if err != nil {
		return models.MemberRecord{}, err
	}
	rec.Name = p.Name
	rec.Bio = p.Bio
	rec.AvatarURL = p.AvatarURL
	return rec, nil
}

// ResolveAll resolves every member in order.
func ResolveAll(ctx context.Context, in []models.Member, lookup ProfileLookup) ([]models.MemberRecord, error) {
	out := make([]models.MemberRecord, 0, len(in))
	for _, m := range in {
		rec, err := Resolve(ctx, m, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// StoreLookup reads profiles straight from the store.
type StoreLookup struct {
	profiles *profilestore.Store
}

func NewStoreLookup(ds docstore.Store) *StoreLookup {
	return &StoreLookup{profiles: profilestore.New(ds)}
}

func (l *StoreLookup) LookupProfile(ctx context.Context, userID string) (models.Profile, error) {
	return l.profiles.Get(ctx, userID)
}

// CachedLookup memoizes another lookup for a bounded time. Misses are not
// cached.
type CachedLookup struct {
	next  ProfileLookup
	cache *cache.Cache
}

// NewCachedLookup wraps next with a cache whose entries live for ttl.
func NewCachedLookup(next ProfileLookup, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedLookup{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (l *CachedLookup) LookupProfile(ctx context.Context, userID string) (models.Profile, error) {
	if x, found := l.cache.Get(userID); found {
		return x.(models.Profile), nil
	}
	p, err := l.next.LookupProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	l.cache.Set(userID, p, cache.DefaultExpiration)
	return p, nil
}

// Invalidate drops a cached profile, typically right after the user edits it.
func (l *CachedLookup) Invalidate(userID string) {
	l.cache.Delete(userID)
}
