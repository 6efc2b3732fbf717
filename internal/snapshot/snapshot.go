// Package snapshot exports a collection as JSON lines to a storage sink and
// loads such exports back. Each line is canonical MongoDB extended JSON, so
// doubles, 64-bit integers and object identifiers keep their types.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jakestrouse00/mongodriver/internal/document"
	"github.com/jakestrouse00/mongodriver/internal/storage"
	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/internal/value"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
	"github.com/jakestrouse00/mongodriver/pkg/metrics"
)

// ContentType is the media type of an exported snapshot.
const ContentType = "application/x-ndjson"

// maxLine bounds a single exported record when reading a snapshot back.
const maxLine = 16 << 20

// Info describes one written snapshot.
type Info struct {
	Key       string    `json:"key"`
	Documents int       `json:"documents"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult counts what Restore did. Records whose _id already exists
// are skipped.
type RestoreResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

type Exporter struct {
	driver *document.Driver
	sink   storage.Sink
	now    func() time.Time
}

func NewExporter(driver *document.Driver, sink storage.Sink) *Exporter {
	return &Exporter{driver: driver, sink: sink, now: time.Now}
}

// Export writes every record of the bound collection, one JSON object per
// line, under a fresh key.
func (e *Exporter) Export(ctx context.Context) (Info, error) {
	docs, err := e.driver.Load(ctx)
	if err != nil {
		return Info{}, err
	}
	var buf bytes.Buffer
	for _, d := range docs {
		line, err := bson.MarshalExtJSON(record(d), true, false)
		if err != nil {
			return Info{}, fmt.Errorf("encode %s: %w", d.ID(), err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	created := e.now().UTC()
	info := Info{
		Key:       fmt.Sprintf("%s-%s.jsonl", created.Format("20060102T150405Z"), uuid.NewString()),
		Documents: len(docs),
		Bytes:     int64(buf.Len()),
		CreatedAt: created,
	}
	if err := e.sink.Put(ctx, info.Key, &buf, info.Bytes, ContentType); err != nil {
		return Info{}, err
	}
	metrics.SnapshotsWritten.WithLabelValues(e.sink.Name()).Inc()
	logger.Infof("snapshot %s written to %s (%d documents)", info.Key, e.sink.Name(), info.Documents)
	return info, nil
}

// Open returns the raw snapshot stored at key.
func (e *Exporter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return e.sink.Get(ctx, key)
}

// Restore creates a record for every line of the snapshot stored at key,
// keeping the exported identifiers.
func (e *Exporter) Restore(ctx context.Context, key string) (RestoreResult, error) {
	rc, err := e.sink.Get(ctx, key)
	if err != nil {
		return RestoreResult{}, err
	}
	defer rc.Close()

	var res RestoreResult
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var rec bson.M
		if err := bson.UnmarshalExtJSON(sc.Bytes(), false, &rec); err != nil {
			return res, fmt.Errorf("%s line %d: %w", key, line, err)
		}
		fields, err := value.FieldsFromBSON(rec)
		if err != nil {
			return res, fmt.Errorf("%s line %d: %w", key, line, err)
		}
		if _, err := e.driver.Create(ctx, fields); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("%s line %d: %w", key, line, err)
		}
		res.Restored++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read %s: %w", key, err)
	}
	logger.Infof("snapshot %s restored: %d created, %d skipped", key, res.Restored, res.Skipped)
	return res, nil
}

// record rebuilds the stored shape of d, with a hex identifier turned back
// into an ObjectID.
func record(d *document.Document) bson.M {
	rec := d.AsMap().BSON()
	if oid, err := primitive.ObjectIDFromHex(d.ID()); err == nil {
		rec[store.IDKey] = oid
	} else {
		rec[store.IDKey] = d.ID()
	}
	return rec
}
