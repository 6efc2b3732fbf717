package document

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jakestrouse00/mongodriver/internal/value"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
)

// Variable is a handle on one field of a Document. It holds no value of its
// own: reads go to the document, so the two cannot disagree.
type Variable struct {
	doc *Document
	key string
}

func (v *Variable) Key() string { return v.key }

// Value returns the field's current value, or null once detached.
func (v *Variable) Value() value.Value {
	val, _ := v.doc.Get(v.key)
	return val
}

// Detached reports whether the field is no longer part of the document.
func (v *Variable) Detached() bool {
	_, ok := v.doc.Get(v.key)
	return !ok
}

func (v *Variable) String() string { return v.Value().String() }

// Update sets this field remotely and then in the document. It always
// writes, even when the value is unchanged; Document.SetField is the
// comparing entry point.
func (v *Variable) Update(ctx context.Context, nv value.Value) (Outcome, error) {
	d := v.doc
	if d.Removed() {
		return Removed, nil
	}
	if v.Detached() {
		return Unchanged, fmt.Errorf("%w: %q", ErrDetached, v.key)
	}
	matched, err := d.write(ctx, bson.M{"$set": bson.M{v.key: nv.BSON()}})
	if err != nil {
		return Unchanged, err
	}
	d.mu.Lock()
	d.fields[v.key] = nv
	d.mu.Unlock()
	return outcomeOf(matched), nil
}

// Remove unsets the field remotely and drops it from the document. The
// Variable is unusable afterwards.
func (v *Variable) Remove(ctx context.Context) (Outcome, error) {
	d := v.doc
	if d.Removed() {
		return Removed, nil
	}
	if v.Detached() {
		return Unchanged, fmt.Errorf("%w: %q", ErrDetached, v.key)
	}
	matched, err := d.write(ctx, bson.M{"$unset": bson.M{v.key: ""}})
	if err != nil {
		return Unchanged, err
	}
	d.mu.Lock()
	delete(d.fields, v.key)
	d.mu.Unlock()
	logger.Debugf("field %q of document %s unset", v.key, d.id)
	return outcomeOf(matched), nil
}
