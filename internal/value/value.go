package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a JSON-like field value: null, bool, number, string, ordered
// sequence or nested mapping. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  Fields
}

// Fields maps field names to values. It is the shape of one record.
type Fields map[string]Value

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }
func Object(f Fields) Value { return Value{kind: KindObject, obj: f} }

// Of converts a plain Go value into a Value. It accepts the types produced by
// encoding/json and the common integer widths; anything else panics, so it is
// meant for literals in code and tests. Use FromBSON for driver output.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Of(e)
		}
		return Array(out...)
	case []Value:
		return Array(x...)
	case map[string]any:
		return Object(FieldsOf(x))
	case Fields:
		return Object(x)
	}
	panic(fmt.Sprintf("value: cannot convert %T", v))
}

// FieldsOf converts a plain map using Of for every entry.
func FieldsOf(m map[string]any) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		out[k] = Of(v)
	}
	return out
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (Fields, bool) { return v.obj, v.kind == KindObject }

// AsFloat returns the numeric value of an Int or Float.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Equal reports deep equality. Int and Float compare by numeric value.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.obj.Equal(b.obj)
	}
	return false
}

// Equal is shorthand for Equal(v, o); it also lets go-cmp compare Values.
func (v Value) Equal(o Value) bool { return Equal(v, o) }

// Equal reports whether both mappings hold the same keys with equal values.
func (f Fields) Equal(o Fields) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.clone()
	}
	return out
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.clone()
		}
		return Array(arr...)
	case KindObject:
		return Object(v.obj.Clone())
	}
	return v
}

// String renders the value the way a caller would print a plain scalar:
// strings are unquoted, containers are rendered as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}
