package document

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/internal/value"
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return oid, nil
}

func idFilter(id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{store.IDKey: oid}, nil
}

// toBSON converts a caller-supplied filter. A string _id
// is coerced to an ObjectID, including inside $eq, $ne and $in.
func toBSON(fields value.Fields) (bson.M, error) {
	out := fields.BSON()
	raw, ok := fields[store.IDKey]
	if !ok {
		return out, nil
	}
	id, err := coerceID(raw)
	if err != nil {
		return nil, err
	}
	out[store.IDKey] = id
	return out, nil
}

// insertRecord converts an insert payload. The identifier may be absent,
// null (the store assigns one) or a hex string; any other kind is refused
// before anything is written.
func insertRecord(fields value.Fields) (bson.M, error) {
	out := fields.BSON()
	raw, ok := fields[store.IDKey]
	if !ok {
		return out, nil
	}
	switch raw.Kind() {
	case value.KindNull:
		delete(out, store.IDKey)
	case value.KindString:
		s, _ := raw.AsString()
		oid, err := objectID(s)
		if err != nil {
			return nil, err
		}
		out[store.IDKey] = oid
	default:
		return nil, fmt.Errorf("%w: _id must be a hex string, got %s", ErrInvalidID, raw.Kind())
	}
	return out, nil
}

func coerceID(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return objectID(s)
	case value.KindArray:
		list, _ := v.AsArray()
		out := make(bson.A, len(list))
		for i, e := range list {
			id, err := coerceID(e)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	case value.KindObject:
		obj, _ := v.AsObject()
		out := make(bson.M, len(obj))
		for op, arg := range obj {
			switch op {
			case "$eq", "$ne", "$in", "$nin":
				id, err := coerceID(arg)
				if err != nil {
					return nil, err
				}
				out[op] = id
			default:
				out[op] = arg.BSON()
			}
		}
		return out, nil
	}
	return v.BSON(), nil
}

// idString renders a stored identifier as the hex string a Document carries.
func idString(raw any) (string, error) {
	switch id := raw.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	}
	return "", fmt.Errorf("%w: record identifier has type %T", ErrInvalidID, raw)
}

// withoutID returns a copy of fields minus the identifier key.
func withoutID(fields value.Fields) value.Fields {
	out := fields.Clone()
	if out == nil {
		out = value.Fields{}
	}
	delete(out, store.IDKey)
	return out
}

// Field names are mirrored flat, so dotted paths and operators would make
// the stored record and the mirror disagree.
func checkFieldName(key string) error {
	if key == "" || strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
		return fmt.Errorf("%w %q", ErrInvalidFieldName, key)
	}
	return nil
}
