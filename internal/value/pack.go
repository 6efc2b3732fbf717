package value

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Pack decodes fields into out, which must be a pointer to a struct or map.
// Struct fields are matched by their bson tags, as the driver does.
func Pack(fields Fields, out any) error {
	data, err := bson.Marshal(fields.BSON())
	if err != nil {
		return fmt.Errorf("pack marshal: %w", err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return fmt.Errorf("pack unmarshal: %w", err)
	}
	return nil
}

// Unpack is the inverse of Pack: it encodes a struct (or map) and returns
// its fields.
func Unpack(in any) (Fields, error) {
	data, err := bson.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("unpack marshal: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unpack unmarshal: %w", err)
	}
	return FieldsFromBSON(m)
}
