package store

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jakestrouse00/mongodriver/pkg/metrics"
)

func TestMemoryCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.InsertOne(ctx, bson.M{"name": "dude", "year": 2007})
	require.NoError(t, err)
	require.False(t, id.IsZero())
	require.Equal(t, 1, m.Len())

	got, err := m.FindOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "dude", got["name"])

	upd, err := m.FindOneAndUpdate(ctx, bson.M{IDKey: id}, bson.M{"$set": bson.M{"year": 2008, "size": "XL"}}, nil)
	require.NoError(t, err)
	require.NotNil(t, upd)
	require.EqualValues(t, 2008, upd["year"])
	require.Equal(t, "XL", upd["size"])

	upd, err = m.FindOneAndUpdate(ctx, bson.M{IDKey: id}, bson.M{"$unset": bson.M{"size": ""}}, nil)
	require.NoError(t, err)
	_, present := upd["size"]
	require.False(t, present)

	del, err := m.FindOneAndDelete(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	require.NotNil(t, del)
	require.Equal(t, 0, m.Len())

	gone, err := m.FindOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestMemoryNoMatchReturnsNil(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	missing := primitive.NewObjectID()

	rec, err := m.FindOneAndUpdate(ctx, bson.M{IDKey: missing}, bson.M{"$set": bson.M{"a": 1}}, nil)
	require.NoError(t, err)
	require.Nil(t, rec)

	rec, err = m.FindOneAndDelete(ctx, bson.M{IDKey: missing})
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMemoryDuplicateID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := primitive.NewObjectID()
	_, err := m.InsertOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	_, err = m.InsertOne(ctx, bson.M{IDKey: id})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemoryFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, d := range []bson.M{
		{"name": "a", "n": 1, "tags": bson.A{"red", "blue"}, "meta": bson.M{"owner": "x"}},
		{"name": "b", "n": 2, "tags": bson.A{"green"}},
		{"name": "c", "n": 3.0},
	} {
		_, err := m.InsertOne(ctx, d)
		require.NoError(t, err)
	}

	cases := []struct {
		name   string
		filter bson.M
		want   []string
	}{
		{"all", bson.M{}, []string{"a", "b", "c"}},
		{"nil filter", nil, []string{"a", "b", "c"}},
		{"equality", bson.M{"name": "b"}, []string{"b"}},
		{"int matches float", bson.M{"n": 3}, []string{"c"}},
		{"array membership", bson.M{"tags": "blue"}, []string{"a"}},
		{"dotted path", bson.M{"meta.owner": "x"}, []string{"a"}},
		{"null matches missing", bson.M{"tags": nil}, []string{"c"}},
		{"$in", bson.M{"name": bson.M{"$in": bson.A{"a", "c"}}}, []string{"a", "c"}},
		{"$ne", bson.M{"name": bson.M{"$ne": "a"}}, []string{"b", "c"}},
		{"$nin", bson.M{"name": bson.M{"$nin": bson.A{"a", "c"}}}, []string{"b"}},
		{"$exists", bson.M{"meta": bson.M{"$exists": true}}, []string{"a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := m.Find(ctx, tc.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(recs))
			for _, r := range recs {
				names = append(names, r["name"].(string))
			}
			require.Equal(t, tc.want, names)
		})
	}

	_, err := m.Find(ctx, bson.M{"n": bson.M{"$gt": 1}})
	require.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestMemoryRejectsUnsupportedFilterUpFront(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Find(ctx, bson.M{"n": bson.M{"$regex": "x"}})
	require.ErrorIs(t, err, ErrUnsupportedFilter)
	_, err = m.FindOne(ctx, bson.M{"n": bson.M{"$regex": "x"}})
	require.ErrorIs(t, err, ErrUnsupportedFilter)

	_, err = m.InsertOne(ctx, bson.M{"name": "a"})
	require.NoError(t, err)
	// the first key never matches, so only an up-front check sees the operator
	for i := 0; i < 20; i++ {
		_, err = m.Find(ctx, bson.M{"name": "zzz", "n": bson.M{"$regex": "x"}})
		require.ErrorIs(t, err, ErrUnsupportedFilter)
		_, err = m.FindOneAndUpdate(ctx, bson.M{"name": "zzz", "n": bson.M{"$in": 1}}, bson.M{"$set": bson.M{"x": 1}}, nil)
		require.ErrorIs(t, err, ErrUnsupportedFilter)
		_, err = m.FindOneAndDelete(ctx, bson.M{"name": "zzz", "n": bson.M{"$exists": "yes"}})
		require.ErrorIs(t, err, ErrUnsupportedFilter)
	}
	require.Equal(t, 1, m.Len())
}

func TestMemoryFindOneAndUpdateHonoursSort(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, n := range []int{2, 3, 1} {
		_, err := m.InsertOne(ctx, bson.M{"kind": "x", "n": n})
		require.NoError(t, err)
	}

	rec, err := m.FindOneAndUpdate(ctx, bson.M{"kind": "x"}, bson.M{"$set": bson.M{"picked": true}}, bson.D{{Key: "n", Value: -1}})
	require.NoError(t, err)
	require.EqualValues(t, 3, rec["n"])

	rec, err = m.FindOneAndUpdate(ctx, bson.M{"kind": "x"}, bson.M{"$set": bson.M{"first": true}}, bson.D{{Key: "n", Value: 1}})
	require.NoError(t, err)
	require.EqualValues(t, 1, rec["n"])
}

func TestMemoryRejectsUnknownUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.InsertOne(ctx, bson.M{"n": 1})
	require.NoError(t, err)
	_, err = m.FindOneAndUpdate(ctx, bson.M{IDKey: id}, bson.M{"$inc": bson.M{"n": 1}}, nil)
	require.ErrorIs(t, err, ErrUnsupportedUpdate)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.InsertOne(ctx, bson.M{"name": "a"})
	require.NoError(t, err)

	rec, err := m.FindOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	rec["name"] = "mutated"

	again, err := m.FindOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	require.Equal(t, "a", again["name"])
}

func TestInstrumentedCountsResults(t *testing.T) {
	c := NewInstrumented(NewMemory())
	ctx := context.Background()

	beforeOK := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("find_one", "ok"))
	beforeMiss := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("find_one", "no_match"))

	id, err := c.InsertOne(ctx, bson.M{"a": 1})
	require.NoError(t, err)
	_, err = c.FindOne(ctx, bson.M{IDKey: id})
	require.NoError(t, err)
	_, err = c.FindOne(ctx, bson.M{IDKey: primitive.NewObjectID()})
	require.NoError(t, err)

	require.Equal(t, beforeOK+1, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("find_one", "ok")))
	require.Equal(t, beforeMiss+1, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("find_one", "no_match")))
}
