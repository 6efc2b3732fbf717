package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Collection used by unit tests and by the service
// when no MongoDB URI is configured. Records keep insertion order and are
// copied through a BSON round trip on the way in and out, so callers see
// the same decoded types the real driver produces.
type Memory struct {
	mu   sync.RWMutex
	docs []bson.M
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertOne(_ context.Context, doc bson.M) (primitive.ObjectID, error) {
	rec, err := clone(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	var oid primitive.ObjectID
	switch id := rec[IDKey].(type) {
	case nil:
		oid = primitive.NewObjectID()
		rec[IDKey] = oid
	case primitive.ObjectID:
		oid = id
	default:
		return primitive.NilObjectID, fmt.Errorf("memory store only supports ObjectID identifiers, got %T", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(oid) >= 0 {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrDuplicateKey, oid.Hex())
	}
	m.docs = append(m.docs, rec)
	return oid, nil
}

func (m *Memory) FindOneAndUpdate(_ context.Context, filter, update bson.M, sortBy bson.D) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.pick(filter, sortBy)
	if err != nil || i < 0 {
		return nil, err
	}
	updated, err := applyUpdate(m.docs[i], update)
	if err != nil {
		return nil, err
	}
	m.docs[i] = updated
	return clone(updated)
}

func (m *Memory) FindOneAndDelete(_ context.Context, filter bson.M) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.pick(filter, nil)
	if err != nil || i < 0 {
		return nil, err
	}
	rec := m.docs[i]
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return rec, nil
}

func (m *Memory) Find(_ context.Context, filter bson.M) ([]bson.M, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []bson.M{}
	for _, d := range m.docs {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		c, err := clone(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) FindOne(_ context.Context, filter bson.M) (bson.M, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, err := m.pick(filter, nil)
	if err != nil || i < 0 {
		return nil, err
	}
	return clone(m.docs[i])
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// pick returns the index of the first match under sortBy, or -1.
func (m *Memory) pick(filter bson.M, sortBy bson.D) (int, error) {
	if err := checkFilter(filter); err != nil {
		return -1, err
	}
	var hits []int
	for i, d := range m.docs {
		ok, err := matches(d, filter)
		if err != nil {
			return -1, err
		}
		if ok {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return -1, nil
	}
	if len(sortBy) > 0 {
		sort.SliceStable(hits, func(a, b int) bool {
			return m.less(m.docs[hits[a]], m.docs[hits[b]], sortBy)
		})
	}
	return hits[0], nil
}

func (m *Memory) less(a, b bson.M, sortBy bson.D) bool {
	for _, e := range sortBy {
		av, aok := lookup(a, e.Key)
		bv, bok := lookup(b, e.Key)
		c := compareValues(av, aok, bv, bok)
		if c == 0 {
			continue
		}
		if direction(e.Value) < 0 {
			return c > 0
		}
		return c < 0
	}
	return false
}

func direction(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return 1
}

func (m *Memory) indexOf(oid primitive.ObjectID) int {
	for i, d := range m.docs {
		if id, ok := d[IDKey].(primitive.ObjectID); ok && id == oid {
			return i
		}
	}
	return -1
}

func applyUpdate(doc, update bson.M) (bson.M, error) {
	out, err := clone(doc)
	if err != nil {
		return nil, err
	}
	for op, arg := range update {
		fields, ok := arg.(bson.M)
		if !ok {
			if plain, isMap := arg.(map[string]any); isMap {
				fields, ok = bson.M(plain), true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s argument has type %T", ErrUnsupportedUpdate, op, arg)
		}
		switch op {
		case "$set":
			for path, v := range fields {
				if path == IDKey {
					return nil, fmt.Errorf("%w: cannot $set %s", ErrUnsupportedUpdate, IDKey)
				}
				setPath(out, path, v)
			}
		case "$unset":
			for path := range fields {
				unsetPath(out, path)
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedUpdate, op)
		}
	}
	return clone(out)
}

func setPath(doc bson.M, path string, v any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			next = bson.M{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

func unsetPath(doc bson.M, path string) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

func clone(doc bson.M) (bson.M, error) {
	if doc == nil {
		doc = bson.M{}
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
