// Package table is a schema-aware accessor over one database table.
//
// A Table answers questions about its columns, keys and incoming foreign
// keys, and runs the generic reads: existence probes and row selects.
// It holds no row data; see package entity for that.
package table

import (
	"context"
	"sort"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/schema"
)

// Table wraps a table name and its introspected schema.
type Table struct {
	db     database.DB
	schema *schema.Table
	log    *logger.Logger
}

// New builds a Table for name, introspecting it through reg on first use.
func New(ctx context.Context, reg *schema.Registry, name string) (*Table, error) {
	s, err := reg.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Table{
		db:     reg.DB(),
		schema: s,
		log:    reg.Logger().ForTable(name),
	}, nil
}

func (t *Table) Name() string { return t.schema.Name }

func (t *Table) Schema() *schema.Table { return t.schema }

func (t *Table) DB() database.DB { return t.db }

func (t *Table) Logger() *logger.Logger { return t.log }

func (t *Table) HasColumn(name string) bool { return t.schema.HasColumn(name) }

// Column returns the descriptor of the named column.
func (t *Table) Column(name string) (schema.Column, bool) {
	return t.schema.Column(name)
}

// Columns returns every column descriptor in catalog order.
func (t *Table) Columns() []schema.Column {
	out := make([]schema.Column, len(t.schema.Columns))
	copy(out, t.schema.Columns)
	return out
}

// PrimaryKeys returns the primary key column names in declared order.
func (t *Table) PrimaryKeys() []string {
	keys := make([]string, len(t.schema.PrimaryKeys))
	for i, pk := range t.schema.PrimaryKeys {
		keys[i] = pk.Column
	}
	return keys
}

// IsPrimaryAndAutoIncrement reports whether name is an auto-increment
// primary key column.
func (t *Table) IsPrimaryAndAutoIncrement(name string) bool {
	for _, pk := range t.schema.PrimaryKeys {
		if pk.Column == name {
			return pk.AutoIncrement
		}
	}
	return false
}

// AutoIncrementKey returns the auto-increment primary key column, if any.
func (t *Table) AutoIncrementKey() (string, bool) {
	for _, pk := range t.schema.PrimaryKeys {
		if pk.AutoIncrement {
			return pk.Column, true
		}
	}
	return "", false
}

// Relations returns the foreign keys other tables declare against this one.
func (t *Table) Relations() []schema.Relation {
	out := make([]schema.Relation, len(t.schema.Relations))
	copy(out, t.schema.Relations)
	return out
}

// HasRelation reports whether refererTable declares a foreign key against
// this table.
func (t *Table) HasRelation(refererTable string) bool {
	for _, r := range t.schema.Relations {
		if r.RefererTable == refererTable {
			return true
		}
	}
	return false
}

// ForeignKeyExists reports whether column of table references this table.
// Both must appear in the same relation.
func (t *Table) ForeignKeyExists(table, column string) bool {
	for _, r := range t.schema.Relations {
		if r.RefererTable == table && r.RefererColumn == column {
			return true
		}
	}
	return false
}

// ValueExists reports whether some row of this table has value in column.
// An unknown column yields false.
func (t *Table) ValueExists(ctx context.Context, column string, value any) (bool, error) {
	if !t.HasColumn(column) {
		return false, nil
	}
	return t.exists(ctx, t.Name(), []string{column}, map[string]any{column: value})
}

// ValueExistsIn is ValueExists against another table of the database. A
// table the connection does not know yields false.
func (t *Table) ValueExistsIn(ctx context.Context, table, column string, value any) (bool, error) {
	if table == t.Name() {
		return t.ValueExists(ctx, column, value)
	}
	if !t.db.HasTable(table) {
		return false, nil
	}
	return t.exists(ctx, table, []string{column}, map[string]any{column: value})
}

// PKValueExists reports whether a row of this table matches every
// column/value pair of key. The pairs need not form the primary key.
// An empty key or an unknown column yields false.
func (t *Table) PKValueExists(ctx context.Context, key map[string]any) (bool, error) {
	if len(key) == 0 {
		return false, nil
	}
	for column := range key {
		if !t.HasColumn(column) {
			return false, nil
		}
	}
	return t.exists(ctx, t.Name(), sortedKeys(key), key)
}

// PKValueExistsIn is PKValueExists against another table of the database.
func (t *Table) PKValueExistsIn(ctx context.Context, table string, key map[string]any) (bool, error) {
	if table == t.Name() {
		return t.PKValueExists(ctx, key)
	}
	if len(key) == 0 || !t.db.HasTable(table) {
		return false, nil
	}
	return t.exists(ctx, table, sortedKeys(key), key)
}

// exists runs SELECT EXISTS(SELECT cols FROM table WHERE c1 = ? AND ...).
func (t *Table) exists(ctx context.Context, table string, columns []string, values map[string]any) (bool, error) {
	var b database.Builder
	b.Write("SELECT EXISTS(SELECT ").Idents(columns).Write(" FROM ").Ident(table).Write(" WHERE ")
	for i, c := range columns {
		if i > 0 {
			b.Write(" AND ")
		}
		b.Ident(c).Write(" = ").Bind(schema.BindToken(c), BindValue(values[c]))
	}
	b.Write(")")
	stmt := b.Build()

	var found bool
	err := t.db.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&found)
	t.log.Statement(stmt.SQL, stmt.Binds, err)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Select returns the row whose primary key equals key, given in primary
// key order. A missing row yields an empty Row.
func (t *Table) Select(ctx context.Context, key ...any) (Row, error) {
	var b database.Builder
	b.Write("SELECT * FROM ").Ident(t.Name()).Write(" WHERE ")
	if err := t.WherePrimaryKey(&b, key); err != nil {
		return nil, err
	}
	rows, err := t.query(ctx, b.Build())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return Row{}, nil
	}
	return rows[0], nil
}

// SelectAll returns every row of the table.
func (t *Table) SelectAll(ctx context.Context) ([]Row, error) {
	var b database.Builder
	b.Write("SELECT * FROM ").Ident(t.Name())
	return t.query(ctx, b.Build())
}

// SelectWhere returns the rows whose column equals value, ordered by
// orderBy descending when it is set. limit <= 0 means no limit.
func (t *Table) SelectWhere(ctx context.Context, column string, value any, orderBy string, limit int) ([]Row, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidProperty, "%s has no column %q", t.Name(), column)
	}
	v, err := Coerce(col, value)
	if err != nil {
		return nil, err
	}

	var b database.Builder
	b.Write("SELECT * FROM ").Ident(t.Name()).Write(" WHERE ").Ident(column).Write(" = ").Bind(col.Bind, v)
	if orderBy != "" {
		if !t.HasColumn(orderBy) {
			return nil, errs.Newf(errs.ErrKindInvalidProperty, "%s has no column %q", t.Name(), orderBy)
		}
		b.Write(" ORDER BY ").Ident(orderBy).Write(" DESC")
	}
	if limit > 0 {
		b.Write(" LIMIT ").Bind(":limit", int64(limit))
	}
	return t.query(ctx, b.Build())
}

// WherePrimaryKey appends the primary key predicate to b, binding values
// in declared primary key order.
func (t *Table) WherePrimaryKey(b *database.Builder, values []any) error {
	pks := t.schema.PrimaryKeys
	if len(values) != len(pks) {
		return errs.Newf(errs.ErrKindInvalidInput,
			"%s has %d primary key column(s), got %d value(s)", t.Name(), len(pks), len(values))
	}
	for i, pk := range pks {
		col, _ := t.Column(pk.Column)
		if values[i] == nil {
			return errs.Newf(errs.ErrKindInvalidPropertyValue, "primary key %q of %s is not set", pk.Column, t.Name())
		}
		v, err := Coerce(col, values[i])
		if err != nil {
			return err
		}
		if i > 0 {
			b.Write(" AND ")
		}
		b.Ident(pk.Column).Write(" = ").Bind(col.Bind, v)
	}
	return nil
}

func (t *Table) query(ctx context.Context, stmt database.Stmt) ([]Row, error) {
	rows, err := t.db.Query(ctx, stmt.SQL, stmt.Args...)
	t.log.Statement(stmt.SQL, stmt.Binds, err)
	if err != nil {
		return nil, err
	}
	raw, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	out := make([]Row, len(raw))
	for i, r := range raw {
		out[i] = t.normalizeRow(r)
	}
	return out, nil
}

// normalizeRow converts driver values by column type. Columns the schema
// does not know (computed aliases) keep their driver value, with []byte
// turned into string.
func (t *Table) normalizeRow(raw map[string]any) Row {
	row := make(Row, len(raw))
	for name, v := range raw {
		if col, ok := t.Column(name); ok {
			row[name] = normalize(col, v)
			continue
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[name] = v
	}
	return row
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
