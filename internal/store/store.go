package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDKey is the field under which every record carries its identifier.
const IDKey = "_id"

var (
	ErrDuplicateKey      = errors.New("duplicate _id")
	ErrUnsupportedFilter = errors.New("unsupported filter operator")
	ErrUnsupportedUpdate = errors.New("unsupported update operator")
)

// Collection is the subset of a document collection the driver needs.
// Single-record lookups return a nil record (and no error) when nothing
// matches; FindOneAndUpdate returns the record as it is after the update.
type Collection interface {
	InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error)
	FindOneAndUpdate(ctx context.Context, filter, update bson.M, sort bson.D) (bson.M, error)
	FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error)
	Find(ctx context.Context, filter bson.M) ([]bson.M, error)
	FindOne(ctx context.Context, filter bson.M) (bson.M, error)
}
