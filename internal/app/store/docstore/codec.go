package docstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Encode converts a bson-tagged value into a Doc.
func Encode(v any) (Doc, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var d Doc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return d, nil
}

// Decode fills out (a pointer to a bson-tagged value) from d.
func Decode(d Doc, out any) error {
	raw, err := bson.Marshal(d)
	if err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// Normalize converts a single value into the representation it has once
// stored (structs become Docs, slices become bson.A, times become
// bson DateTimes). Values equal after normalization are equal in the store.
func Normalize(v any) (any, error) {
	d, err := Encode(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return d["v"], nil
}

// Clone returns a deep copy of d.
func Clone(d Doc) (Doc, error) {
	if d == nil {
		return nil, nil
	}
	return Encode(d)
}

// FindElement returns the first element of the array field whose key equals
// value, along with its index. Elements that are not documents are skipped.
func FindElement(d Doc, field, key string, value any) (any, int) {
	arr, ok := d[field].(bson.A)
	if !ok {
		return nil, -1
	}
	for i, el := range arr {
		m, ok := el.(bson.M)
		if !ok {
			continue
		}
		if m[key] == value {
			return el, i
		}
	}
	return nil, -1
}
