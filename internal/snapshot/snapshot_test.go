package snapshot_test

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicus75/testtask/internal/dbtest"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/filestore"
	"github.com/dominicus75/testtask/internal/schema"
	"github.com/dominicus75/testtask/internal/snapshot"
	"github.com/dominicus75/testtask/internal/table"
)

// memStore is an in-memory filestore.Store.
type memStore struct {
	buckets map[string]map[string][]byte
	types   map[string]string
	made    []string
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{buckets: map[string]map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) EnsureBucket(_ context.Context, bucket string) error {
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = map[string][]byte{}
		m.made = append(m.made, bucket)
	}
	return nil
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) (*filestore.ObjectInfo, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.buckets[bucket][key] = b
	m.types[key] = contentType
	return &filestore.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: contentType}, nil
}

func (m *memStore) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	var out []filestore.ObjectInfo
	for k, b := range m.buckets[bucket] {
		if strings.HasPrefix(k, opts.Prefix) {
			out = append(out, filestore.ObjectInfo{Key: k, Size: int64(len(b))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, *filestore.ObjectInfo, error) {
	b, ok := m.buckets[bucket][key]
	if !ok {
		return nil, nil, errs.Newf(errs.ErrKindNotFound, "no object %s", key)
	}
	info := &filestore.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: m.types[key]}
	return io.NopCloser(bytes.NewReader(b)), info, nil
}

func (m *memStore) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "http://store.local/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

var taken = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func departments(t *testing.T) *table.Table {
	t.Helper()
	conn, mock := dbtest.Open(t)
	dbtest.ExpectIntrospection(mock, "departments")
	tbl, err := table.New(context.Background(), schema.NewRegistry(conn, nil), "departments")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM `departments`").
		WillReturnRows(dbtest.Rows("departments",
			[]driver.Value{"d001", "Marketing"},
			[]driver.Value{"d002", "Finance"},
		))
	return tbl
}

func newExporter(t *testing.T, store filestore.Store, ttl time.Duration) *snapshot.Exporter {
	t.Helper()
	cfg := filestore.DefaultConfig("localhost:9000", "key", "secret")
	cfg.PresignTTL = ttl
	exp, err := snapshot.New(store, cfg, nil, snapshot.WithClock(func() time.Time { return taken }))
	require.NoError(t, err)
	return exp
}

func TestKey(t *testing.T) {
	assert.Equal(t, "employees/titles/", snapshot.Prefix("employees", "titles"))
	assert.Equal(t, "employees/titles/20240301T093000Z.json", snapshot.Key("employees", "titles", taken))
}

func TestNew_Validation(t *testing.T) {
	_, err := snapshot.New(nil, filestore.DefaultConfig("", "", ""), nil)
	assert.True(t, errs.IsConfiguration(err))

	cfg := filestore.DefaultConfig("", "", "")
	cfg.Bucket = " "
	_, err = snapshot.New(newMemStore(), cfg, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestExport(t *testing.T) {
	store := newMemStore()
	exp := newExporter(t, store, 15*time.Minute)

	res, err := exp.Export(context.Background(), departments(t))
	require.NoError(t, err)

	assert.Equal(t, "snapshots", res.Bucket)
	assert.Equal(t, "employees/departments/20240301T093000Z.json", res.Key)
	assert.Equal(t, 2, res.Rows)
	assert.Positive(t, res.Size)
	assert.Equal(t, "http://store.local/snapshots/employees/departments/20240301T093000Z.json?ttl=15m0s", res.URL)
	assert.Equal(t, []string{"snapshots"}, store.made)

	doc, err := exp.Read(context.Background(), res.Key)
	require.NoError(t, err)
	assert.Equal(t, "employees", doc.Database)
	assert.Equal(t, "departments", doc.Table)
	assert.True(t, taken.Equal(doc.TakenAt))
	assert.Equal(t, []table.Row{
		{"dept_no": "d001", "dept_name": "Marketing"},
		{"dept_no": "d002", "dept_name": "Finance"},
	}, doc.Rows)
}

func TestExport_NoPresign(t *testing.T) {
	exp := newExporter(t, newMemStore(), 0)

	res, err := exp.Export(context.Background(), departments(t))
	require.NoError(t, err)
	assert.Empty(t, res.URL)
}

func TestExport_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errs.Wrap(errs.ErrKindConnectionFailed, "failed to put object", errors.New("refused"))
	exp := newExporter(t, store, 0)

	_, err := exp.Export(context.Background(), departments(t))
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestListAndLatest(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.EnsureBucket(context.Background(), "snapshots"))
	b := store.buckets["snapshots"]
	b["employees/departments/20240301T093000Z.json"] = []byte("{}")
	b["employees/departments/20240302T093000Z.json"] = []byte("{}")
	b["employees/departments/notes.txt"] = []byte("x")
	b["employees/dept_emp/20240301T093000Z.json"] = []byte("{}")

	exp := newExporter(t, store, 0)

	objs, err := exp.List(context.Background(), "employees", "departments", 0)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "employees/departments/20240301T093000Z.json", objs[0].Key)

	objs, err = exp.List(context.Background(), "employees", "departments", 1)
	require.NoError(t, err)
	assert.Len(t, objs, 1)

	latest, err := exp.Latest(context.Background(), "employees", "departments")
	require.NoError(t, err)
	assert.Equal(t, "employees/departments/20240302T093000Z.json", latest.Key)

	_, err = exp.Latest(context.Background(), "employees", "titles")
	assert.True(t, errs.IsNotFound(err))
}

func TestRead_Invalid(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.EnsureBucket(context.Background(), "snapshots"))
	store.buckets["snapshots"]["bad.json"] = []byte("not json")
	exp := newExporter(t, store, 0)

	_, err := exp.Read(context.Background(), "bad.json")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = exp.Read(context.Background(), "missing.json")
	assert.True(t, errs.IsNotFound(err))

	store.buckets["snapshots"]["page.json"] = []byte("{}")
	store.types["page.json"] = "text/html"
	_, err = exp.Read(context.Background(), "page.json")
	assert.True(t, errs.IsInvalidInput(err))
}
