package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEqualNumbersAcrossKinds(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.True(t, Equal(Float(2.5), Float(2.5)))
	assert.False(t, Equal(Int(1), Int(2)))
	assert.False(t, Equal(Int(1), String("1")))
	assert.True(t, Equal(Null(), Value{}))
}

func TestEqualContainers(t *testing.T) {
	a := Of(map[string]any{"tags": []any{"x", 1}, "nested": map[string]any{"ok": true}})
	b := Of(map[string]any{"tags": []any{"x", 1.0}, "nested": map[string]any{"ok": true}})
	assert.True(t, Equal(a, b))

	c := Of(map[string]any{"tags": []any{"x"}, "nested": map[string]any{"ok": true}})
	assert.False(t, Equal(a, c))
}

func TestCloneIsDeep(t *testing.T) {
	f := FieldsOf(map[string]any{"inner": map[string]any{"n": 1}})
	cp := f.Clone()
	inner, _ := cp["inner"].AsObject()
	inner["n"] = Int(2)

	orig, _ := f["inner"].AsObject()
	assert.Equal(t, "1", orig["n"].String())
}

func TestString(t *testing.T) {
	cases := map[string]Value{
		"null":            Null(),
		"true":            Bool(true),
		"2007":            Int(2007),
		"1.5":             Float(1.5),
		"XL":              String("XL"),
		`[1,"a"]`:         Array(Int(1), String("a")),
		`{"a":1,"b":"c"}`: Of(map[string]any{"b": "c", "a": 1}),
	}
	for want, v := range cases {
		assert.Equal(t, want, v.String())
	}
}

func TestJSONKeepsIntegersIntegral(t *testing.T) {
	var f Fields
	require.NoError(t, json.Unmarshal([]byte(`{"year":2007,"ratio":0.5,"tags":["a"],"meta":{"x":null}}`), &f))

	i, ok := f["year"].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(2007), i)
	assert.Equal(t, KindFloat, f["ratio"].Kind())
	assert.Equal(t, KindArray, f["tags"].Kind())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2007,"ratio":0.5,"tags":["a"],"meta":{"x":null}}`, string(out))
}

func TestFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := bson.M{
		"_id":   oid,
		"n32":   int32(7),
		"n64":   int64(8),
		"when":  primitive.NewDateTimeFromTime(when),
		"list":  bson.A{"a", int32(1)},
		"doc":   bson.D{{Key: "k", Value: "v"}},
		"empty": nil,
	}
	f, err := FieldsFromBSON(raw)
	require.NoError(t, err)

	want := Fields{
		"_id":   String(oid.Hex()),
		"n32":   Int(7),
		"n64":   Int(8),
		"when":  String("2024-01-02T03:04:05Z"),
		"list":  Array(String("a"), Int(1)),
		"doc":   Object(Fields{"k": String("v")}),
		"empty": Null(),
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("FieldsFromBSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBSONRendersOddTypesAsStrings(t *testing.T) {
	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)
	raw := bson.M{
		"price": dec,
		"blob":  primitive.Binary{Data: []byte("hi")},
		"ts":    primitive.Timestamp{T: 1704164645, I: 3},
		"re":    primitive.Regex{Pattern: "^a", Options: "i"},
		"name":  "ok",
	}
	f, err := FieldsFromBSON(raw)
	require.NoError(t, err)

	want := Fields{
		"price": String("12.50"),
		"blob":  String("aGk="),
		"ts":    String("2024-01-02T03:04:05Z"),
		"re":    String("/^a/i"),
		"name":  String("ok"),
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("FieldsFromBSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBSONUnsupported(t *testing.T) {
	_, err := FromBSON(primitive.MinKey{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestBSONRoundTrip(t *testing.T) {
	f := FieldsOf(map[string]any{"name": "dude", "year": 2007, "sizes": []any{"S", "XL"}, "ok": true})
	data, err := bson.Marshal(f.BSON())
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(data, &m))
	got, err := FieldsFromBSON(m)
	require.NoError(t, err)
	assert.True(t, f.Equal(got), "got %v", got)
}

type shirt struct {
	Name string   `bson:"name"`
	Year int      `bson:"year"`
	Tags []string `bson:"tags,omitempty"`
}

func TestPackUnpack(t *testing.T) {
	f := FieldsOf(map[string]any{"name": "dude", "year": 2007, "tags": []any{"a", "b"}})

	var s shirt
	require.NoError(t, Pack(f, &s))
	assert.Equal(t, shirt{Name: "dude", Year: 2007, Tags: []string{"a", "b"}}, s)

	back, err := Unpack(s)
	require.NoError(t, err)
	assert.True(t, f.Equal(back), "got %v", back)
}
