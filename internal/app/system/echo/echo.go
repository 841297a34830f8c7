// Package echo re-shares a form from one community into another.
//
// Provenance is flattened: every echo points at the root form of its chain,
// never at an intermediate echo. The echoed form's echoCount counts direct
// echoes only.
package echo

import (
	"context"
	"errors"
	"time"

	communitystore "github.com/dalemusser/circlehub/internal/app/store/communities"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	formstore "github.com/dalemusser/circlehub/internal/app/store/forms"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("echo")

// Result carries the id of the form created by a successful echo.
type Result struct {
	NewFormID string `json:"newFormId" yaml:"newFormId"`
}

// Engine performs echoes. It holds no state beyond its store.
type Engine struct {
	ds    docstore.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how new form ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func New(ds docstore.Store, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		ds:    ds,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Echo copies the source form into the target community as a new form owned
// by actor, then bumps the source form's echoCount and lastEchoAt. Both
// writes commit together or not at all.
func (e *Engine) Echo(ctx context.Context, sourceCommunityID, sourceFormID, targetCommunityID string, actor models.Actor) (Result, error) {
	const op = "echo.Echo"
	switch {
	case sourceCommunityID == "":
		return Result{}, apperr.Validation(op, "sourceCommunityId", "source community id is required")
	case sourceFormID == "":
		return Result{}, apperr.Validation(op, "sourceFormId", "source form id is required")
	case targetCommunityID == "":
		return Result{}, apperr.Validation(op, "targetCommunityId", "target community id is required")
	case targetCommunityID == sourceCommunityID:
		return Result{}, apperr.Validation(op, "targetCommunityId", "cannot echo a form into its own community")
	case actor.UserID == "":
		return Result{}, apperr.Validation(op, "userId", "acting user is required")
	case actor.Name == "":
		return Result{}, apperr.Validation(op, "userName", "acting user name is required")
	}

	ctx, span := tracer.Start(ctx, "Echo.Echo")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_community_id", sourceCommunityID),
		attribute.String("source_form_id", sourceFormID),
		attribute.String("target_community_id", targetCommunityID),
	)

	newID := e.newID()
	var rootFormID string
	err := e.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		src, err := tx.Get(ctx, formstore.Collection, sourceFormID)
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound(op, formstore.Collection, sourceFormID)
		}
		if err != nil {
			return err
		}
		form, err := formstore.Decode(src)
		if err != nil {
			return err
		}
		if form.CommunityID != sourceCommunityID {
			return apperr.NotFound(op, formstore.Collection, sourceFormID)
		}
		if _, err := tx.Get(ctx, communitystore.Collection, targetCommunityID); errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound(op, communitystore.Collection, targetCommunityID)
		} else if err != nil {
			return err
		}

		rootFormID = form.OriginFormID
		if rootFormID == "" {
			rootFormID = sourceFormID
		}
		rootCommunityID := form.OriginCommunityID
		if rootCommunityID == "" {
			rootCommunityID = sourceCommunityID
		}

		now := e.now()
		// src is a private copy; fields the model does not know about are carried over.
		echoed := src
		echoed[docstore.IDField] = newID
		echoed["communityId"] = targetCommunityID
		echoed["originFormId"] = rootFormID
		echoed["originCommunityId"] = rootCommunityID
		echoed["userId"] = actor.UserID
		echoed["userName"] = actor.Name
		if actor.AvatarURL != "" {
			echoed["userAvatarUrl"] = actor.AvatarURL
		} else {
			delete(echoed, "userAvatarUrl")
		}
		echoed["createdAt"] = now
		echoed[formstore.LastEchoAtField] = now
		echoed[formstore.EchoCountField] = int64(0)

		if err := tx.Set(ctx, formstore.Collection, newID, echoed); err != nil {
			return err
		}
		return tx.Update(ctx, formstore.Collection, sourceFormID,
			docstore.Increment(formstore.EchoCountField, 1),
			docstore.SetField(formstore.LastEchoAtField, now),
		)
	})
	if err != nil {
		err = apperr.FromStore(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		if apperr.IsConflict(err) {
			e.log.Warn("echo: retry budget exhausted",
				zap.String("source_form_id", sourceFormID),
				zap.String("target_community_id", targetCommunityID))
		}
		return Result{}, err
	}

	span.SetAttributes(attribute.String("new_form_id", newID))
	e.log.Info("echo: form echoed",
		zap.String("source_form_id", sourceFormID),
		zap.String("root_form_id", rootFormID),
		zap.String("target_community_id", targetCommunityID),
		zap.String("new_form_id", newID),
		zap.String("user_id", actor.UserID))
	return Result{NewFormID: newID}, nil
}
