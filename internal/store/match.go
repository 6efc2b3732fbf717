package store

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jakestrouse00/mongodriver/internal/value"
)

// matches evaluates the equality subset of the query language: plain
// values, dotted paths, array membership and $eq/$ne/$in/$nin/$exists.
func matches(doc, filter bson.M) (bool, error) {
	for path, want := range filter {
		got, found := lookup(doc, path)
		if ops, ok := operators(want); ok {
			for op, arg := range ops {
				ok, err := evalOperator(op, got, found, arg)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}
			continue
		}
		if !equalOrContains(got, found, want) {
			return false, nil
		}
	}
	return true, nil
}

// checkFilter rejects operators matches cannot evaluate. It runs before any
// record is visited so the answer does not depend on what is stored.
func checkFilter(filter bson.M) error {
	for _, want := range filter {
		ops, ok := operators(want)
		if !ok {
			continue
		}
		for op, arg := range ops {
			switch op {
			case "$eq", "$ne":
			case "$in", "$nin":
				if _, ok := asList(arg); !ok {
					return fmt.Errorf("%w: %s needs an array, got %T", ErrUnsupportedFilter, op, arg)
				}
			case "$exists":
				if _, ok := arg.(bool); !ok {
					return fmt.Errorf("%w: $exists needs a bool, got %T", ErrUnsupportedFilter, arg)
				}
			default:
				return fmt.Errorf("%w: %s", ErrUnsupportedFilter, op)
			}
		}
	}
	return nil
}

func operators(v any) (bson.M, bool) {
	var m bson.M
	switch x := v.(type) {
	case bson.M:
		m = x
	case map[string]any:
		m = bson.M(x)
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func evalOperator(op string, got any, found bool, arg any) (bool, error) {
	switch op {
	case "$eq":
		return equalOrContains(got, found, arg), nil
	case "$ne":
		return !equalOrContains(got, found, arg), nil
	case "$in", "$nin":
		list, ok := asList(arg)
		if !ok {
			return false, fmt.Errorf("%w: %s needs an array, got %T", ErrUnsupportedFilter, op, arg)
		}
		for _, want := range list {
			if equalOrContains(got, found, want) {
				return op == "$in", nil
			}
		}
		return op == "$nin", nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return false, fmt.Errorf("%w: $exists needs a bool, got %T", ErrUnsupportedFilter, arg)
		}
		return found == want, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedFilter, op)
}

// equalOrContains follows the server: a null filter value matches a missing
// field, and a scalar matches an array holding it.
func equalOrContains(got any, found bool, want any) bool {
	if !found {
		return want == nil
	}
	if equalValues(got, want) {
		return true
	}
	if _, wantList := asList(want); wantList {
		return false
	}
	if list, ok := asList(got); ok {
		for _, e := range list {
			if equalValues(e, want) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b any) bool {
	ao, aIsOID := a.(primitive.ObjectID)
	bo, bIsOID := b.(primitive.ObjectID)
	if aIsOID || bIsOID {
		return aIsOID && bIsOID && ao == bo
	}
	av, err := value.FromBSON(a)
	if err != nil {
		return false
	}
	bv, err := value.FromBSON(b)
	if err != nil {
		return false
	}
	return value.Equal(av, bv)
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case bson.A:
		return x, true
	case []any:
		return x, true
	}
	return nil, false
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch x := cur.(type) {
		case bson.M:
			v, ok := x[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := x[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range x {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// compareValues orders values roughly the way the server sorts mixed types.
func compareValues(a any, aFound bool, b any, bFound bool) int {
	ra, rb := rank(a, aFound), rank(b, bFound)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNumber:
		af, _ := toValue(a).AsFloat()
		bf, _ := toValue(b).AsFloat()
		return cmpOrdered(af, bf)
	case rankString:
		as, _ := toValue(a).AsString()
		bs, _ := toValue(b).AsString()
		return cmpOrdered(as, bs)
	case rankObjectID:
		return cmpOrdered(a.(primitive.ObjectID).Hex(), b.(primitive.ObjectID).Hex())
	case rankBool:
		ab, _ := toValue(a).AsBool()
		bb, _ := toValue(b).AsBool()
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	}
	return 0
}

const (
	rankNull = iota
	rankNumber
	rankString
	rankObject
	rankArray
	rankObjectID
	rankBool
	rankOther
)

func rank(v any, found bool) int {
	if !found {
		return rankNull
	}
	if _, ok := v.(primitive.ObjectID); ok {
		return rankObjectID
	}
	val, err := value.FromBSON(v)
	if err != nil {
		return rankOther
	}
	switch val.Kind() {
	case value.KindNull:
		return rankNull
	case value.KindInt, value.KindFloat:
		return rankNumber
	case value.KindString:
		return rankString
	case value.KindObject:
		return rankObject
	case value.KindArray:
		return rankArray
	case value.KindBool:
		return rankBool
	}
	return rankOther
}

func toValue(v any) value.Value {
	val, _ := value.FromBSON(v)
	return val
}

func cmpOrdered[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
