// Package cardmove moves kanban cards between roadmap columns atomically.
package cardmove

import (
	"context"
	"errors"

	columnstore "github.com/dalemusser/circlehub/internal/app/store/columns"
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("cardmove")

// Result reports the outcome of a successful MoveCard call. Moved is false
// when the card was no longer in the source column, which happens when a
// concurrent caller moved it first.
type Result struct {
	Moved bool `json:"moved" yaml:"moved"`
}

// Engine moves cards. It holds no state beyond its store.
type Engine struct {
	ds  docstore.Store
	log *zap.Logger
}

func New(ds docstore.Store, logger *zap.Logger) *Engine {
	return &Engine{ds: ds, log: logger}
}

// MoveCard removes the card from the source column and adds it to the target
// column in one transaction. Both columns must exist. A card that is not in
// the source column is a benign no-op; nothing is written.
func (e *Engine) MoveCard(ctx context.Context, sourceColumnID, targetColumnID, cardID string) (Result, error) {
	const op = "cardmove.MoveCard"
	switch {
	case sourceColumnID == "":
		return Result{}, apperr.Validation(op, "sourceColumnId", "source column id is required")
	case targetColumnID == "":
		return Result{}, apperr.Validation(op, "targetColumnId", "target column id is required")
	case cardID == "":
		return Result{}, apperr.Validation(op, "cardId", "card id is required")
	}

	ctx, span := tracer.Start(ctx, "CardMove.MoveCard")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_column_id", sourceColumnID),
		attribute.String("target_column_id", targetColumnID),
		attribute.String("card_id", cardID),
	)

	var res Result
	err := e.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		res = Result{}
		src, err := tx.Get(ctx, columnstore.Collection, sourceColumnID)
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound(op, columnstore.Collection, sourceColumnID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Get(ctx, columnstore.Collection, targetColumnID); errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound(op, columnstore.Collection, targetColumnID)
		} else if err != nil {
			return err
		}

		// The stored element itself is removed so the match covers every field.
		card, idx := docstore.FindElement(src, columnstore.CardsField, "id", cardID)
		if idx < 0 {
			return nil
		}
		if err := tx.Update(ctx, columnstore.Collection, sourceColumnID, docstore.ArrayRemove(columnstore.CardsField, card)); err != nil {
			return err
		}
		ordered, err := columnstore.OrderedCard(card)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, columnstore.Collection, targetColumnID, docstore.ArrayUnion(columnstore.CardsField, ordered)); err != nil {
			return err
		}
		res.Moved = true
		return nil
	})
	if err != nil {
		err = apperr.FromStore(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		if apperr.IsConflict(err) {
			e.log.Warn("cardmove: retry budget exhausted",
				zap.String("source_column_id", sourceColumnID),
				zap.String("target_column_id", targetColumnID),
				zap.String("card_id", cardID))
		}
		return Result{}, err
	}

	span.SetAttributes(attribute.Bool("moved", res.Moved))
	if !res.Moved {
		e.log.Debug("cardmove: card not in source column",
			zap.String("source_column_id", sourceColumnID),
			zap.String("card_id", cardID))
		return res, nil
	}
	e.log.Info("cardmove: card moved",
		zap.String("source_column_id", sourceColumnID),
		zap.String("target_column_id", targetColumnID),
		zap.String("card_id", cardID))
	return res, nil
}
