package memstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
)

// apply mutates d in place. d must be a private copy.
func apply(d docstore.Doc, ops []docstore.Op) error {
	for _, op := range ops {
		if op.Field == "" || op.Field == docstore.IDField {
			return fmt.Errorf("memstore: %s: invalid field %q", op.Kind, op.Field)
		}
		parent, leaf, err := walk(d, op.Field)
		if err != nil {
			return err
		}
		switch op.Kind {
		case docstore.OpSet:
			v, err := docstore.Normalize(op.Values[0])
			if err != nil {
				return err
			}
			parent[leaf] = v

		case docstore.OpArrayUnion:
			arr, err := arrayAt(parent, leaf, op)
			if err != nil {
				return err
			}
			for _, raw := range op.Values {
				v, err := docstore.Normalize(raw)
				if err != nil {
					return err
				}
				if indexOf(arr, v) < 0 {
					arr = append(arr, v)
				}
			}
			parent[leaf] = arr

		case docstore.OpArrayRemove:
			arr, err := arrayAt(parent, leaf, op)
			if err != nil {
				return err
			}
			targets := make([]any, 0, len(op.Values))
			for _, raw := range op.Values {
				v, err := docstore.Normalize(raw)
				if err != nil {
					return err
				}
				targets = append(targets, v)
			}
			kept := make(bson.A, 0, len(arr))
			for _, el := range arr {
				if indexOf(targets, el) < 0 {
					kept = append(kept, el)
				}
			}
			parent[leaf] = kept

		case docstore.OpIncrement:
			switch n := parent[leaf].(type) {
			case nil:
				parent[leaf] = op.Delta
			case int32:
				parent[leaf] = int64(n) + op.Delta
			case int64:
				parent[leaf] = n + op.Delta
			case int:
				parent[leaf] = int64(n) + op.Delta
			case float64:
				parent[leaf] = n + float64(op.Delta)
			default:
				return fmt.Errorf("memstore: increment: field %q is %T, not numeric", op.Field, n)
			}

		default:
			return fmt.Errorf("memstore: unknown op %s", op.Kind)
		}
	}
	return nil
}

// walk resolves a dotted path to its parent document, creating intermediate
// documents as needed.
func walk(d docstore.Doc, path string) (bson.M, string, error) {
	parts := strings.Split(path, ".")
	cur := bson.M(d)
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok || next == nil {
			m := bson.M{}
			cur[p] = m
			cur = m
			continue
		}
		m, ok := next.(bson.M)
		if !ok {
			return nil, "", fmt.Errorf("memstore: path %q crosses non-document field %q", path, p)
		}
		cur = m
	}
	return cur, parts[len(parts)-1], nil
}

func arrayAt(parent bson.M, leaf string, op docstore.Op) (bson.A, error) {
	switch v := parent[leaf].(type) {
	case nil:
		return bson.A{}, nil
	case bson.A:
		return v, nil
	default:
		return nil, fmt.Errorf("memstore: %s: field %q is %T, not an array", op.Kind, op.Field, v)
	}
}

func indexOf(arr []any, v any) int {
	for i, el := range arr {
		if reflect.DeepEqual(el, v) {
			return i
		}
	}
	return -1
}
