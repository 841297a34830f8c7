// Package reconcile repairs drift between canonical profiles and the member
// copies embedded in community documents.
//
// Only name, bio and avatarUrl are reconciled. Member type and role have no
// canonical source and are never rewritten; AI members, reference members and
// members without a user id pass through untouched, as do members whose
// profile no longer exists.
package reconcile

import (
	"context"
	"errors"

	communitystore "github.com/dalemusser/circlehub/internal/app/store/communities"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	profilestore "github.com/dalemusser/circlehub/internal/app/store/profiles"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("reconcile")

// DefaultBatchSize bounds how many community rewrites share one transaction.
const DefaultBatchSize = 200

// Config tunes the engine.
type Config struct {
	// BatchSize is the number of communities committed per transaction.
	// Each chunk is all-or-nothing; a run with one chunk is fully atomic.
	BatchSize int
}

// Result reports what a run examined and repaired.
type Result struct {
	CommunitiesScanned int `json:"communitiesScanned" yaml:"communitiesScanned"`
	MembersSynced      int `json:"membersSynced" yaml:"membersSynced"`
	IssuesFixed        int `json:"issuesFixed" yaml:"issuesFixed"`

	CommunitiesFixed int `json:"communitiesFixed" yaml:"communitiesFixed"`
	ChunksCommitted  int `json:"chunksCommitted" yaml:"chunksCommitted"`
	ChunksTotal      int `json:"chunksTotal" yaml:"chunksTotal"`
}

// Engine is stateless apart from its injected store; it is safe for
// concurrent use and concurrent runs converge on the same content.
type Engine struct {
	ds          docstore.Store
	profiles    *profilestore.Store
	communities *communitystore.Store
	log         *zap.Logger
	batchSize   int
}

func New(ds docstore.Store, logger *zap.Logger, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Engine{
		ds:          ds,
		profiles:    profilestore.New(ds),
		communities: communitystore.New(ds),
		log:         logger,
		batchSize:   cfg.BatchSize,
	}
}

// ReconcileAll scans every community against every profile and rewrites the
// members array of each community with drifted members. When nothing drifted,
// nothing is written.
func (e *Engine) ReconcileAll(ctx context.Context) (Result, error) {
	const op = "reconcile.ReconcileAll"
	ctx, span := tracer.Start(ctx, "Reconcile.ReconcileAll")
	defer span.End()

	var (
		profiles    []models.Profile
		communities []models.Community
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = e.profiles.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		communities, err = e.communities.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		err = apperr.FromStore(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return Result{}, err
	}

	byUser := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	res, err := e.run(ctx, op, byUser, communities, "")
	span.SetAttributes(
		attribute.Int("communities_scanned", res.CommunitiesScanned),
		attribute.Int("issues_fixed", res.IssuesFixed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
	}
	return res, err
}

// ReconcileUser reconciles one user's member copies across all communities.
// It is the targeted fan-out run after a profile edit.
func (e *Engine) ReconcileUser(ctx context.Context, userID string) (Result, error) {
	const op = "reconcile.ReconcileUser"
	if userID == "" {
		return Result{}, apperr.Validation(op, "userId", "user id is required")
	}
	ctx, span := tracer.Start(ctx, "Reconcile.ReconcileUser")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	p, err := e.profiles.Get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return Result{}, apperr.NotFound(op, profilestore.Collection, userID)
	}
	if err != nil {
		err = apperr.FromStore(op, err)
		span.RecordError(err)
		return Result{}, err
	}

	communities, err := e.communities.List(ctx)
	if err != nil {
		err = apperr.FromStore(op, err)
		span.RecordError(err)
		return Result{}, err
	}

	res, err := e.run(ctx, op, map[string]models.Profile{userID: p}, communities, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
	}
	return res, err
}

func (e *Engine) run(ctx context.Context, op string, profiles map[string]models.Profile, communities []models.Community, onlyUser string) (Result, error) {
	var res Result
	var pending []string
	for _, c := range communities {
		res.CommunitiesScanned++
		examined, fixed := countDrift(c.Members, profiles, onlyUser)
		res.MembersSynced += examined
		if fixed > 0 {
			pending = append(pending, c.ID)
		}
	}

	if len(pending) == 0 {
		e.log.Debug("reconcile: no drift found",
			zap.String("op", op),
			zap.Int("communities_scanned", res.CommunitiesScanned),
			zap.Int("members_synced", res.MembersSynced))
		return res, nil
	}

	res.ChunksTotal = (len(pending) + e.batchSize - 1) / e.batchSize
	for start := 0; start < len(pending); start += e.batchSize {
		end := start + e.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		fixed, rewritten, err := e.commitChunk(ctx, pending[start:end], profiles, onlyUser)
		if err != nil {
			e.log.Error("reconcile: chunk commit failed",
				zap.String("op", op),
				zap.Int("chunk", res.ChunksCommitted+1),
				zap.Int("chunks_total", res.ChunksTotal),
				zap.Error(err))
			return res, apperr.FromStore(op, err)
		}
		res.IssuesFixed += fixed
		res.CommunitiesFixed += rewritten
		res.ChunksCommitted++
	}

	e.log.Info("reconcile: members repaired",
		zap.String("op", op),
		zap.Int("communities_scanned", res.CommunitiesScanned),
		zap.Int("members_synced", res.MembersSynced),
		zap.Int("issues_fixed", res.IssuesFixed),
		zap.Int("communities_fixed", res.CommunitiesFixed))
	return res, nil
}

// commitChunk rewrites the given communities in one transaction. Each
// community is re-read inside the transaction so a membership change that
// landed after the scan is kept rather than overwritten.
func (e *Engine) commitChunk(ctx context.Context, ids []string, profiles map[string]models.Profile, onlyUser string) (int, int, error) {
	var fixed, rewritten int
	err := e.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		fixed, rewritten = 0, 0
		for _, id := range ids {
			d, err := tx.Get(ctx, communitystore.Collection, id)
			if errors.Is(err, docstore.ErrNotFound) {
				// Deleted since the scan; nothing left to repair.
				continue
			}
			if err != nil {
				return err
			}
			arr, ok := d[communitystore.MembersField].(bson.A)
			if !ok {
				continue
			}
			members, n, err := repairMembers(arr, profiles, onlyUser)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			if err := tx.Update(ctx, communitystore.Collection, id, communitystore.MembersOp(members)); err != nil {
				return err
			}
			fixed += n
			rewritten++
		}
		return nil
	})
	return fixed, rewritten, err
}

// countDrift returns the number of human members with a user id that were
// examined and how many of them differ from their profile.
func countDrift(in []models.Member, profiles map[string]models.Profile, onlyUser string) (int, int) {
	examined, fixed := 0, 0
	for _, m := range in {
		rec, ok := m.Record()
		if !ok || !eligible(rec, onlyUser) {
			continue
		}
		examined++
		if p, ok := profiles[rec.UserID]; ok && drifted(rec, p) {
			fixed++
		}
	}
	return examined, fixed
}

// repairMembers returns a copy of the stored members array in which every
// drifted human record has its name, bio and avatarUrl keys overwritten from
// the profile. Every other element, and every other key of a repaired
// element, is carried over as stored.
func repairMembers(arr bson.A, profiles map[string]models.Profile, onlyUser string) (bson.A, int, error) {
	out := make(bson.A, len(arr))
	copy(out, arr)
	fixed := 0
	for i, el := range arr {
		raw, ok := el.(bson.M)
		if !ok {
			continue
		}
		var rec models.MemberRecord
		if err := docstore.Decode(raw, &rec); err != nil {
			return nil, 0, err
		}
		if !eligible(rec, onlyUser) {
			continue
		}
		p, ok := profiles[rec.UserID]
		if !ok || !drifted(rec, p) {
			continue
		}
		repaired := make(bson.M, len(raw))
		for k, v := range raw {
			repaired[k] = v
		}
		repaired["name"] = p.Name
		repaired["bio"] = p.Bio
		if p.AvatarURL == "" {
			delete(repaired, "avatarUrl")
		} else {
			repaired["avatarUrl"] = p.AvatarURL
		}
		out[i] = repaired
		fixed++
	}
	return out, fixed, nil
}

func eligible(rec models.MemberRecord, onlyUser string) bool {
	if rec.Type != models.MemberHuman || rec.UserID == "" {
		return false
	}
	return onlyUser == "" || rec.UserID == onlyUser
}

func drifted(rec models.MemberRecord, p models.Profile) bool {
	return rec.Name != p.Name || rec.Bio != p.Bio || rec.AvatarURL != p.AvatarURL
}
