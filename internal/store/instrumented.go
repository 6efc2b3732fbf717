package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jakestrouse00/mongodriver/pkg/metrics"
)

// Instrumented records every call on the wrapped Collection in the
// store_operations_total and store_operation_seconds metrics.
type Instrumented struct {
	next Collection
}

func NewInstrumented(next Collection) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	defer observe("insert_one", time.Now())
	oid, err := i.next.InsertOne(ctx, doc)
	count("insert_one", true, err)
	return oid, err
}

func (i *Instrumented) FindOneAndUpdate(ctx context.Context, filter, update bson.M, sort bson.D) (bson.M, error) {
	defer observe("find_one_and_update", time.Now())
	rec, err := i.next.FindOneAndUpdate(ctx, filter, update, sort)
	count("find_one_and_update", rec != nil, err)
	return rec, err
}

func (i *Instrumented) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	defer observe("find_one_and_delete", time.Now())
	rec, err := i.next.FindOneAndDelete(ctx, filter)
	count("find_one_and_delete", rec != nil, err)
	return rec, err
}

func (i *Instrumented) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	defer observe("find", time.Now())
	recs, err := i.next.Find(ctx, filter)
	count("find", len(recs) > 0, err)
	return recs, err
}

func (i *Instrumented) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	defer observe("find_one", time.Now())
	rec, err := i.next.FindOne(ctx, filter)
	count("find_one", rec != nil, err)
	return rec, err
}

func count(op string, matched bool, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case !matched:
		result = "no_match"
	}
	metrics.StoreOperations.WithLabelValues(op, result).Inc()
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
