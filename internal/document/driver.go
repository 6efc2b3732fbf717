package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jakestrouse00/mongodriver/internal/database"
	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/internal/value"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Config names the collection a Driver binds to.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds connecting and disconnecting only; operations use the
	// caller's context.
	Timeout time.Duration
}

func (c Config) validate() error {
	var missing []string
	if c.URI == "" {
		missing = append(missing, "URI")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.Collection == "" {
		missing = append(missing, "collection")
	}
	if len(missing) > 0 {
		return fmt.Errorf("driver config: missing %v", missing)
	}
	return nil
}

// SortField orders candidates when UpdateWhere matches several records.
type SortField struct {
	Key        string
	Descending bool
}

// Driver binds one collection and produces Documents from it. Every
// Document shares the Driver's collection handle.
type Driver struct {
	cfg    Config
	client *mongo.Client
	coll   store.Collection
}

// Open connects to MongoDB and binds cfg.Collection.
func Open(ctx context.Context, cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	col := client.Database(cfg.Database).Collection(cfg.Collection)
	logger.Infof("driver bound to %s.%s", cfg.Database, cfg.Collection)
	return &Driver{cfg: cfg, client: client, coll: store.NewInstrumented(store.NewMongo(col))}, nil
}

// New wraps an existing collection. Close is then a no-op.
func New(coll store.Collection) *Driver {
	return &Driver{coll: coll}
}

// Close disconnects the client opened by Open.
func (dr *Driver) Close() error {
	if dr.client == nil {
		return nil
	}
	return database.Disconnect(dr.client, dr.cfg.Timeout)
}

// Ping checks the connection; drivers built with New always succeed.
func (dr *Driver) Ping(ctx context.Context) error {
	if dr.client == nil {
		return nil
	}
	return dr.client.Ping(ctx, nil)
}

func (dr *Driver) Collection() store.Collection { return dr.coll }

// Create inserts fields as a new record. A string "_id" is used as the
// record's identifier; an absent or null one is assigned by the store.
func (dr *Driver) Create(ctx context.Context, fields value.Fields) (*Document, error) {
	rec, err := insertRecord(fields)
	if err != nil {
		return nil, err
	}
	oid, err := dr.coll.InsertOne(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	logger.Debugf("document %s created", oid.Hex())
	return newDocument(oid.Hex(), fields, dr.coll), nil
}

// Load returns every record in the collection.
func (dr *Driver) Load(ctx context.Context) ([]*Document, error) {
	return dr.find(ctx, bson.M{})
}

// Find returns every record matching filter.
func (dr *Driver) Find(ctx context.Context, filter value.Fields) ([]*Document, error) {
	f, err := toBSON(filter)
	if err != nil {
		return nil, err
	}
	return dr.find(ctx, f)
}

func (dr *Driver) find(ctx context.Context, filter bson.M) ([]*Document, error) {
	recs, err := dr.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	out := make([]*Document, 0, len(recs))
	for _, rec := range recs {
		d, err := fromRecord(rec, dr.coll)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// FindOne returns the first record matching filter; found is false when
// there is none.
func (dr *Driver) FindOne(ctx context.Context, filter value.Fields) (doc *Document, found bool, err error) {
	f, err := toBSON(filter)
	if err != nil {
		return nil, false, err
	}
	rec, err := dr.coll.FindOne(ctx, f)
	if err != nil {
		return nil, false, fmt.Errorf("find one: %w", err)
	}
	if rec == nil {
		return nil, false, nil
	}
	d, err := fromRecord(rec, dr.coll)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// Update applies values to doc and returns the same instance.
func (dr *Driver) Update(ctx context.Context, doc *Document, values value.Fields) (*Document, Outcome, error) {
	outcome, err := doc.Set(ctx, values)
	return doc, outcome, err
}

// UpdateWhere sets values on the first record matching filter (under sort,
// when given) and returns a fresh Document of the updated record.
func (dr *Driver) UpdateWhere(ctx context.Context, filter, values value.Fields, sort ...SortField) (*Document, bool, error) {
	values = withoutID(values)
	if len(values) == 0 {
		return nil, false, ErrEmptyUpdate
	}
	f, err := toBSON(filter)
	if err != nil {
		return nil, false, err
	}
	rec, err := dr.coll.FindOneAndUpdate(ctx, f, bson.M{"$set": values.BSON()}, sortDoc(sort))
	if err != nil {
		return nil, false, fmt.Errorf("update where: %w", err)
	}
	if rec == nil {
		return nil, false, nil
	}
	d, err := fromRecord(rec, dr.coll)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// Remove deletes doc's record.
func (dr *Driver) Remove(ctx context.Context, doc *Document) (Outcome, error) {
	if doc == nil {
		return Unchanged, errors.New("remove: nil document")
	}
	return doc.Remove(ctx)
}

// RemoveWhere deletes the first record matching filter and reports whether
// one was found.
func (dr *Driver) RemoveWhere(ctx context.Context, filter value.Fields) (bool, error) {
	f, err := toBSON(filter)
	if err != nil {
		return false, err
	}
	rec, err := dr.coll.FindOneAndDelete(ctx, f)
	if err != nil {
		return false, fmt.Errorf("remove where: %w", err)
	}
	return rec != nil, nil
}

func sortDoc(fields []SortField) bson.D {
	if len(fields) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Descending {
			dir = -1
		}
		out = append(out, bson.E{Key: f.Key, Value: dir})
	}
	return out
}
