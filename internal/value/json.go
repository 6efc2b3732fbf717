package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON encodes the value as plain JSON. NaN and infinities have no
// JSON form and fail.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return nil, fmt.Errorf("value: %v has no JSON encoding", v.f)
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(map[string]Value(v.obj))
	}
	return nil, fmt.Errorf("value: unknown kind %s", v.kind)
}

// UnmarshalJSON decodes any JSON document. Numbers without a fraction or
// exponent that fit in int64 become Int, all others Float.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: bad number %q: %w", x, err)
		}
		return Float(f), nil
	case []any:
		arr := make([]Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Array(arr...), nil
	case map[string]any:
		obj := make(Fields, len(x))
		for k, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return Object(obj), nil
	}
	return Value{}, fmt.Errorf("value: unexpected JSON type %T", raw)
}
