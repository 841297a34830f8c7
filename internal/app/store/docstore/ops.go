package docstore

import "fmt"

// OpKind identifies an update operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpArrayUnion
	OpArrayRemove
	OpIncrement
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpArrayUnion:
		return "arrayUnion"
	case OpArrayRemove:
		return "arrayRemove"
	case OpIncrement:
		return "increment"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is an update-operation descriptor for Store.Update and Txn.Update.
// Field may be a dotted path.
type Op struct {
	Kind   OpKind
	Field  string
	Values []any
	Delta  int64
}

// SetField overwrites a single field.
func SetField(field string, value any) Op {
	return Op{Kind: OpSet, Field: field, Values: []any{value}}
}

// ArrayUnion adds each value to the array field unless an equal element is
// already present.
func ArrayUnion(field string, values ...any) Op {
	return Op{Kind: OpArrayUnion, Field: field, Values: values}
}

// ArrayRemove removes every element equal to one of values.
func ArrayRemove(field string, values ...any) Op {
	return Op{Kind: OpArrayRemove, Field: field, Values: values}
}

// Increment adds delta to a numeric field (a missing field counts as zero).
func Increment(field string, delta int64) Op {
	return Op{Kind: OpIncrement, Field: field, Delta: delta}
}
