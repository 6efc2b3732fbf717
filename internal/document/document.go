package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/internal/value"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
)

// Document mirrors one stored record. Field writes made through SetField,
// Set, Variable.Update or Unset are sent to the store first and mirrored in
// memory once the store answers.
//
// Two Documents loaded for the same record are independent; neither sees
// the other's writes.
type Document struct {
	id   string
	coll store.Collection

	mu      sync.RWMutex
	fields  value.Fields
	removed bool
}

func newDocument(id string, fields value.Fields, coll store.Collection) *Document {
	return &Document{id: id, coll: coll, fields: withoutID(fields)}
}

func fromRecord(rec bson.M, coll store.Collection) (*Document, error) {
	id, err := idString(rec[store.IDKey])
	if err != nil {
		return nil, err
	}
	fields, err := value.FieldsFromBSON(rec)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	return newDocument(id, fields, coll), nil
}

// ID returns the hex identifier of the backing record.
func (d *Document) ID() string { return d.id }

// Removed reports whether Remove was called on this instance.
func (d *Document) Removed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.removed
}

func (d *Document) Get(key string) (value.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.fields[key]
	return v, ok
}

// Var returns a handle for the named field.
func (d *Document) Var(key string) (*Variable, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.fields[key]; !ok {
		return nil, false
	}
	return &Variable{doc: d, key: key}, true
}

// Variables returns a handle per field, ordered by key.
func (d *Document) Variables() []*Variable {
	keys := d.Keys()
	out := make([]*Variable, len(keys))
	for i, k := range keys {
		out[i] = &Variable{doc: d, key: k}
	}
	return out
}

func (d *Document) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.Keys()
}

// AsMap returns a copy of the current fields, without the identifier.
func (d *Document) AsMap() value.Fields {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.Clone()
}

// Decode packs the current fields into out (a pointer to a struct with bson
// tags, or a map).
func (d *Document) Decode(out any) error {
	return value.Pack(d.AsMap(), out)
}

// SetField assigns one field. Assigning the current value is a no-op, an
// existing field goes through Variable.Update and a new field through Set.
func (d *Document) SetField(ctx context.Context, key string, v value.Value) (Outcome, error) {
	if key == store.IDKey {
		return Unchanged, ErrImmutableID
	}
	if err := checkFieldName(key); err != nil {
		return Unchanged, err
	}
	d.mu.RLock()
	removed := d.removed
	cur, exists := d.fields[key]
	d.mu.RUnlock()

	switch {
	case removed:
		return Removed, nil
	case exists && value.Equal(cur, v):
		return Unchanged, nil
	case exists:
		return (&Variable{doc: d, key: key}).Update(ctx, v)
	}
	return d.Set(ctx, value.Fields{key: v})
}

// Set writes all given fields with a single $set and mirrors them. An _id
// entry is ignored.
func (d *Document) Set(ctx context.Context, values value.Fields) (Outcome, error) {
	values = withoutID(values)
	if len(values) == 0 {
		return Unchanged, nil
	}
	for k := range values {
		if err := checkFieldName(k); err != nil {
			return Unchanged, err
		}
	}
	if d.Removed() {
		return Removed, nil
	}
	matched, err := d.write(ctx, bson.M{"$set": values.BSON()})
	if err != nil {
		return Unchanged, err
	}
	d.mu.Lock()
	for k, v := range values {
		d.fields[k] = v
	}
	d.mu.Unlock()
	return outcomeOf(matched), nil
}

// Unset removes a field from the record and the mirror.
func (d *Document) Unset(ctx context.Context, key string) (Outcome, error) {
	if key == store.IDKey {
		return Unchanged, ErrImmutableID
	}
	v, ok := d.Var(key)
	if !ok {
		if d.Removed() {
			return Removed, nil
		}
		return Unchanged, fmt.Errorf("%w %q", ErrUnknownField, key)
	}
	return v.Remove(ctx)
}

// Remove deletes the backing record. The instance stays readable but every
// later write reports Removed without reaching the store.
func (d *Document) Remove(ctx context.Context) (Outcome, error) {
	if d.Removed() {
		return Removed, nil
	}
	filter, err := idFilter(d.id)
	if err != nil {
		return Unchanged, err
	}
	rec, err := d.coll.FindOneAndDelete(ctx, filter)
	if err != nil {
		return Unchanged, fmt.Errorf("remove %s: %w", d.id, err)
	}
	d.mu.Lock()
	d.removed = true
	d.mu.Unlock()
	logger.Debugf("document %s removed (matched=%v)", d.id, rec != nil)
	return outcomeOf(rec != nil), nil
}

// write sends update for this record and reports whether it matched.
func (d *Document) write(ctx context.Context, update bson.M) (bool, error) {
	filter, err := idFilter(d.id)
	if err != nil {
		return false, err
	}
	rec, err := d.coll.FindOneAndUpdate(ctx, filter, update, nil)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", d.id, err)
	}
	if rec == nil {
		logger.Warnf("update of document %s matched no record", d.id)
	} else {
		logger.Debugf("document %s updated: %v", d.id, update)
	}
	return rec != nil, nil
}

// String renders the document as its identifier plus fields.
func (d *Document) String() string {
	b, err := json.Marshal(d.AsMap())
	if err != nil {
		return fmt.Sprintf("Document(%s, <%v>)", d.id, err)
	}
	return fmt.Sprintf("Document(%s, %s)", d.id, b)
}

// MarshalJSON encodes the record shape: the fields plus "_id".
func (d *Document) MarshalJSON() ([]byte, error) {
	out := d.AsMap()
	out[store.IDKey] = value.String(d.id)
	return json.Marshal(out)
}
