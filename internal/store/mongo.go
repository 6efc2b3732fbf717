package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Collection on top of a driver collection handle.
// The handle is shared, never closed here.
type Mongo struct {
	col *mongo.Collection
}

func NewMongo(col *mongo.Collection) *Mongo {
	return &Mongo{col: col}
}

func (m *Mongo) InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	res, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return primitive.NilObjectID, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("inserted id has type %T, want ObjectID", res.InsertedID)
	}
	return oid, nil
}

func (m *Mongo) FindOneAndUpdate(ctx context.Context, filter, update bson.M, sort bson.D) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	return decodeOne(m.col.FindOneAndUpdate(ctx, nonNil(filter), update, opts))
}

func (m *Mongo) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	return decodeOne(m.col.FindOneAndDelete(ctx, nonNil(filter)))
}

func (m *Mongo) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	return decodeOne(m.col.FindOne(ctx, nonNil(filter)))
}

func (m *Mongo) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	cur, err := m.col.Find(ctx, nonNil(filter))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []bson.M{}
	for cur.Next(ctx) {
		var d bson.M
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeOne(res *mongo.SingleResult) (bson.M, error) {
	var d bson.M
	if err := res.Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// the server rejects a nil filter document
func nonNil(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}
