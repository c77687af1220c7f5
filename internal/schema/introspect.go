package schema

import (
	"context"
	"sync"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/logger"
)

// Registry introspects tables on first use and caches their descriptors
// by name. Safe for concurrent use.
type Registry struct {
	db  database.DB
	log *logger.Logger

	mu     sync.Mutex
	tables map[string]*Table
}

// NewRegistry creates an empty registry bound to db.
func NewRegistry(db database.DB, log *logger.Logger) *Registry {
	return &Registry{
		db:     db,
		log:    logger.OrNop(log),
		tables: make(map[string]*Table),
	}
}

// DB returns the connection the registry introspects.
func (r *Registry) DB() database.DB {
	return r.db
}

// Lookup returns the schema of table, introspecting it on the first call.
// Unknown tables and catalog failures are schema errors; nothing is cached
// for a failed lookup.
func (r *Registry) Lookup(ctx context.Context, table string) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tables[table]; ok {
		return t, nil
	}

	if !r.db.HasTable(table) {
		return nil, errs.Newf(errs.ErrKindSchema, "table %q does not exist in database %q", table, r.db.Name())
	}

	cols, err := r.db.ShowColumns(ctx, table)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSchema, "failed to read columns of "+table, err)
	}
	fks, err := r.db.ReferencingKeys(ctx, table)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSchema, "failed to read relations of "+table, err)
	}

	t, err := Build(table, cols, fks)
	if err != nil {
		return nil, err
	}

	r.tables[table] = t
	r.log.ForTable(table).With().
		Int("columns", len(t.Columns)).
		Int("primary_keys", len(t.PrimaryKeys)).
		Int("relations", len(t.Relations)).
		Logger().
		Debug("table introspected")
	return t, nil
}

// Cached reports whether table has already been introspected.
func (r *Registry) Cached(table string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tables[table]
	return ok
}

// Logger returns the logger tables built from this registry inherit.
func (r *Registry) Logger() *logger.Logger {
	return r.log
}
