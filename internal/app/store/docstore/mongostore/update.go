package mongostore

import (
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
)

// buildUpdates translates ops into MongoDB update documents. MongoDB rejects
// an update that touches the same path with two operators, so a new update
// document starts whenever a field repeats; the caller applies them in order.
func buildUpdates(ops []docstore.Op) ([]bson.M, error) {
	var (
		out     []bson.M
		current bson.M
		touched map[string]bool
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
		}
		current = bson.M{}
		touched = map[string]bool{}
	}
	flush()

	for _, op := range ops {
		if op.Field == "" || op.Field == docstore.IDField {
			return nil, fmt.Errorf("mongostore: %s: invalid field %q", op.Kind, op.Field)
		}
		if touched[op.Field] {
			flush()
		}
		touched[op.Field] = true

		operator, value, err := translate(op)
		if err != nil {
			return nil, err
		}
		group, ok := current[operator].(bson.M)
		if !ok {
			group = bson.M{}
			current[operator] = group
		}
		group[op.Field] = value
	}
	flush()
	return out, nil
}

func translate(op docstore.Op) (string, any, error) {
	switch op.Kind {
	case docstore.OpSet:
		return "$set", op.Values[0], nil
	case docstore.OpArrayUnion:
		return "$addToSet", bson.M{"$each": bson.A(op.Values)}, nil
	case docstore.OpArrayRemove:
		// $pull with a document value matches regardless of field order, which
		// matters because decoded documents do not keep their key order.
		if len(op.Values) == 1 {
			return "$pull", op.Values[0], nil
		}
		return "$pull", bson.M{"$in": bson.A(op.Values)}, nil
	case docstore.OpIncrement:
		return "$inc", op.Delta, nil
	default:
		return "", nil, fmt.Errorf("mongostore: unknown op %s", op.Kind)
	}
}
