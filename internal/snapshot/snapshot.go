// Package snapshot exports whole tables as JSON documents into a file
// store and reads them back.
//
// Objects are laid out as <database>/<table>/<timestamp>.json inside the
// configured bucket, so a prefix listing returns one table's history in
// chronological order.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/filestore"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/table"
)

// ContentType of every snapshot object.
const ContentType = "application/json"

const keyTimeFormat = "20060102T150405Z"

// Source is a table that can be read in full. *table.Table satisfies it.
type Source interface {
	Name() string
	DB() database.DB
	SelectAll(ctx context.Context) ([]table.Row, error)
}

// Document is the stored form of a snapshot.
type Document struct {
	Database string      `json:"database"`
	Table    string      `json:"table"`
	TakenAt  time.Time   `json:"taken_at"`
	Rows     []table.Row `json:"rows"`
}

// Result describes a finished export.
type Result struct {
	Bucket string
	Key    string
	Rows   int
	Size   int64
	URL    string // presigned download link, empty when disabled
}

// Exporter writes snapshots to a filestore.Store.
type Exporter struct {
	store  filestore.Store
	bucket string
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock replaces time.Now as the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New creates an Exporter writing into cfg.Bucket.
func New(store filestore.Store, cfg *filestore.Config, log *logger.Logger, opts ...Option) (*Exporter, error) {
	if store == nil {
		return nil, errs.New(errs.ErrKindConfiguration, "snapshot exporter needs a file store")
	}
	if cfg == nil || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "snapshot bucket is not configured")
	}
	e := &Exporter{
		store:  store,
		bucket: cfg.Bucket,
		ttl:    cfg.PresignTTL,
		now:    time.Now,
		log:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Prefix returns the key prefix of every snapshot of db.tbl.
func Prefix(db, tbl string) string {
	return path.Join(db, tbl) + "/"
}

// Key returns the object key of a snapshot of db.tbl taken at t.
func Key(db, tbl string, t time.Time) string {
	return Prefix(db, tbl) + t.UTC().Format(keyTimeFormat) + ".json"
}

// Export reads every row of src and stores them as one JSON document.
func (e *Exporter) Export(ctx context.Context, src Source) (*Result, error) {
	rows, err := src.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []table.Row{}
	}

	doc := Document{
		Database: src.DB().Name(),
		Table:    src.Name(),
		TakenAt:  e.now().UTC().Truncate(time.Second),
		Rows:     rows,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode snapshot of "+doc.Table, err)
	}

	if err := e.store.EnsureBucket(ctx, e.bucket); err != nil {
		return nil, err
	}

	key := Key(doc.Database, doc.Table, doc.TakenAt)
	info, err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), ContentType)
	if err != nil {
		return nil, err
	}

	res := &Result{Bucket: e.bucket, Key: info.Key, Rows: len(rows), Size: info.Size}
	if res.Key == "" {
		res.Key = key
	}
	if e.ttl > 0 {
		url, err := e.store.PresignGetURL(ctx, e.bucket, res.Key, e.ttl)
		if err != nil {
			return nil, err
		}
		res.URL = url
	}

	e.log.With().
		Str("table", doc.Table).
		Str("key", res.Key).
		Int("rows", res.Rows).
		Logger().
		Info("snapshot exported")
	return res, nil
}

// List returns up to limit snapshots of db.tbl, oldest first. A limit of
// zero lists them all.
func (e *Exporter) List(ctx context.Context, db, tbl string, limit int) ([]filestore.ObjectInfo, error) {
	objs, err := e.store.ListObjects(ctx, e.bucket, filestore.ListOptions{
		Prefix:    Prefix(db, tbl),
		Recursive: true,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	out := objs[:0]
	for _, o := range objs {
		if o.IsDir || !strings.HasSuffix(o.Key, ".json") {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// Latest returns the newest snapshot of db.tbl. NotFound when there is none.
func (e *Exporter) Latest(ctx context.Context, db, tbl string) (*filestore.ObjectInfo, error) {
	objs, err := e.List(ctx, db, tbl, 0)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "no snapshot of %s.%s", db, tbl)
	}
	latest := objs[len(objs)-1]
	return &latest, nil
}

// Read loads the snapshot stored at key.
func (e *Exporter) Read(ctx context.Context, key string) (*Document, error) {
	body, info, err := e.store.GetObject(ctx, e.bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if info.ContentType != "" && info.ContentType != ContentType {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "snapshot %s has content type %s", key, info.ContentType)
	}
	var doc Document
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "snapshot "+key+" is not a valid document", err)
	}
	return &doc, nil
}
