package value

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnsupportedType = errors.New("unsupported field type")

// FromBSON converts a value decoded by the mongo driver. BSON types with no
// member in the union are rendered as strings: object identifiers as hex,
// datetimes and timestamps as RFC 3339, decimals in their decimal form,
// binary as standard base64 and regular expressions as /pattern/options.
// Min and max keys still fail with ErrUnsupportedType.
func FromBSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case primitive.Null, primitive.Undefined:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case primitive.ObjectID:
		return String(x.Hex()), nil
	case primitive.DateTime:
		return String(x.Time().UTC().Format(time.RFC3339Nano)), nil
	case time.Time:
		return String(x.UTC().Format(time.RFC3339Nano)), nil
	case primitive.Timestamp:
		return String(time.Unix(int64(x.T), 0).UTC().Format(time.RFC3339)), nil
	case primitive.Decimal128:
		return String(x.String()), nil
	case primitive.Binary:
		return String(base64.StdEncoding.EncodeToString(x.Data)), nil
	case primitive.Regex:
		return String("/" + x.Pattern + "/" + x.Options), nil
	case primitive.JavaScript:
		return String(string(x)), nil
	case primitive.Symbol:
		return String(string(x)), nil
	case bson.A:
		return arrayFromBSON(x)
	case []any:
		return arrayFromBSON(x)
	case bson.M:
		f, err := FieldsFromBSON(x)
		if err != nil {
			return Value{}, err
		}
		return Object(f), nil
	case map[string]any:
		f, err := FieldsFromBSON(bson.M(x))
		if err != nil {
			return Value{}, err
		}
		return Object(f), nil
	case bson.D:
		obj := make(Fields, len(x))
		for _, e := range x {
			v, err := FromBSON(e.Value)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", e.Key, err)
			}
			obj[e.Key] = v
		}
		return Object(obj), nil
	case Fields:
		return Object(x), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, raw)
}

func arrayFromBSON(x []any) (Value, error) {
	arr := make([]Value, len(x))
	for i, e := range x {
		v, err := FromBSON(e)
		if err != nil {
			return Value{}, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return Array(arr...), nil
}

// FieldsFromBSON converts a decoded record. Keys are copied verbatim,
// including "_id".
func FieldsFromBSON(m bson.M) (Fields, error) {
	out := make(Fields, len(m))
	for k, raw := range m {
		v, err := FromBSON(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// BSON returns the value in a form the mongo driver can encode.
func (v Value) BSON() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		arr := make(bson.A, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.BSON()
		}
		return arr
	case KindObject:
		return v.obj.BSON()
	}
	return nil
}

// BSON converts the mapping into a driver document.
func (f Fields) BSON() bson.M {
	out := make(bson.M, len(f))
	for k, v := range f {
		out[k] = v.BSON()
	}
	return out
}
