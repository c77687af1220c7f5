// Package entity is the per-row layer over a table.Table: one value slot per
// column, a pending diff, and the insert/update/delete statements compiled
// from the schema.
//
// Usage:
//
//	tbl, _ := table.New(ctx, reg, "employees")
//	e := entity.New(tbl)
//	_ = e.SetProperties(map[string]any{"first_name": "Géza", ...})
//	ok, err := e.Insert(ctx)
//	empNo, _ := e.Int("emp_no")
package entity

import (
	"context"
	"sort"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/table"
)

// Entity is one schema-bound table row. It is not safe for concurrent use.
type Entity struct {
	*table.Table

	slots   []any // indexed by column position; nil means unset
	updated map[string]any
	state   State
}

// New returns an Empty entity with one unset slot per column.
func New(tbl *table.Table) *Entity {
	return &Entity{
		Table:   tbl,
		slots:   make([]any, len(tbl.Schema().Columns)),
		updated: map[string]any{},
		state:   Empty,
	}
}

// Load reads the row with the given primary key into a Filled entity.
// A missing row is a NotFound error.
func Load(ctx context.Context, tbl *table.Table, key ...any) (*Entity, error) {
	row, err := tbl.Select(ctx, key...)
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "%s: no row with key %v", tbl.Name(), key)
	}
	return Hydrate(tbl, row)
}

// Hydrate wraps an already fetched row as a Filled entity. Every key of row
// must be a column of tbl.
func Hydrate(tbl *table.Table, row table.Row) (*Entity, error) {
	e := New(tbl)
	for name, v := range row {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, errs.Newf(errs.ErrKindInvalidProperty, "%s has no column %q", tbl.Name(), name)
		}
		e.slots[col.Position] = v
	}
	e.state = Filled
	return e, nil
}

func (e *Entity) State() State { return e.state }

// HasProperty reports whether name is a column of the entity's table.
func (e *Entity) HasProperty(name string) bool {
	return e.HasColumn(name)
}

// IssetProperty reports whether the slot of name holds a non-nil value.
func (e *Entity) IssetProperty(name string) bool {
	col, ok := e.Column(name)
	return ok && e.slots[col.Position] != nil
}

// Property returns the current value of name, ignoring any pending update.
func (e *Entity) Property(name string) (any, error) {
	col, ok := e.Column(name)
	if !ok {
		return nil, e.unknown(name)
	}
	return e.slots[col.Position], nil
}

// Properties returns a copy of every slot, unset ones included.
func (e *Entity) Properties() table.Row {
	row := make(table.Row, len(e.slots))
	for _, col := range e.Schema().Columns {
		row[col.Name] = e.slots[col.Position]
	}
	return row
}

// Updated returns a copy of the pending diff.
func (e *Entity) Updated() table.Row {
	row := make(table.Row, len(e.updated))
	for k, v := range e.updated {
		row[k] = v
	}
	return row
}

// Int returns name as int64 when its slot holds an integer.
func (e *Entity) Int(name string) (int64, bool) {
	v, _ := e.Property(name)
	return table.AsInt(v)
}

// Text returns name as string when its slot holds text.
func (e *Entity) Text(name string) (string, bool) {
	v, _ := e.Property(name)
	if v == nil {
		return "", false
	}
	return table.AsText(v)
}

// SetProperty supplies the initial value of name on a not yet persisted
// entity. Unknown columns, auto-increment keys, slots that already hold a
// value and persisted entities are rejected with InvalidProperty.
func (e *Entity) SetProperty(name string, value any) error {
	col, ok := e.Column(name)
	if !ok {
		return e.unknown(name)
	}
	if e.IsPrimaryAndAutoIncrement(name) {
		return errs.Newf(errs.ErrKindInvalidProperty, "%s.%s is an auto-increment key and cannot be written", e.Name(), name)
	}
	if e.state.persisted() {
		return errs.Newf(errs.ErrKindInvalidProperty, "%s entity is %s; use UpdateProperty for %q", e.Name(), e.state, name)
	}
	if e.slots[col.Position] != nil {
		return errs.Newf(errs.ErrKindInvalidProperty, "%s.%s already has a value; use UpdateProperty", e.Name(), name)
	}

	e.slots[col.Position] = value
	e.state = Created
	return nil
}

// UpdateProperty records a new value for name in the pending diff. The
// column need not have a prior value. A Created entity has no row to
// update yet and is rejected; finish it with SetProperty and Insert.
func (e *Entity) UpdateProperty(name string, value any) error {
	if !e.HasColumn(name) {
		return e.unknown(name)
	}
	if e.IsPrimaryAndAutoIncrement(name) {
		return errs.Newf(errs.ErrKindInvalidProperty, "%s.%s is an auto-increment key and cannot be written", e.Name(), name)
	}
	switch e.state {
	case Deleted:
		return errs.Newf(errs.ErrKindInvalidProperty, "%s entity is deleted", e.Name())
	case Created:
		return errs.Newf(errs.ErrKindInvalidProperty, "%s entity is not inserted yet; use SetProperty", e.Name())
	}

	e.updated[name] = value
	e.state = Updated
	return nil
}

// SetProperties applies SetProperty to every entry of values.
// See applyAll for ordering.
func (e *Entity) SetProperties(values map[string]any) error {
	return e.applyAll(values, e.SetProperty)
}

// UpdateProperties applies UpdateProperty to every entry of values.
func (e *Entity) UpdateProperties(values map[string]any) error {
	return e.applyAll(values, e.UpdateProperty)
}

// applyAll walks values in schema column order, then any names that are not
// columns in sorted order. The first failure stops the walk; entries
// applied before it stay applied.
func (e *Entity) applyAll(values map[string]any, apply func(string, any) error) error {
	for _, col := range e.Schema().Columns {
		v, ok := values[col.Name]
		if !ok {
			continue
		}
		if err := apply(col.Name, v); err != nil {
			return err
		}
	}

	var unknown []string
	for name := range values {
		if !e.HasColumn(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return e.unknown(unknown[0])
	}
	return nil
}

// Insert writes a Created entity as a new row. It returns false without
// touching the database in any other state. On success an auto-increment
// key is filled from the backend and the entity becomes Filled.
func (e *Entity) Insert(ctx context.Context) (bool, error) {
	if e.state != Created {
		return false, nil
	}

	var names []string
	for _, col := range e.Schema().Columns {
		if !e.IsPrimaryAndAutoIncrement(col.Name) {
			names = append(names, col.Name)
		}
	}

	var b database.Builder
	b.Write("INSERT INTO ").Ident(e.Name()).Write(" (").Idents(names).Write(") VALUES (")
	for i, name := range names {
		if i > 0 {
			b.Write(", ")
		}
		col, _ := e.Column(name)
		v, err := e.bindable(name, e.slots[col.Position])
		if err != nil {
			return false, err
		}
		b.Bind(col.Bind, v)
	}
	b.Write(")")

	res, err := e.exec(ctx, b.Build())
	if err != nil {
		return false, err
	}

	if key, ok := e.AutoIncrementKey(); ok {
		col, _ := e.Column(key)
		e.slots[col.Position] = res.LastInsertID
	}
	e.state = Filled
	return true, nil
}

// Update writes the pending diff of an Updated entity, locating the row by
// the current primary key values. It returns false in any other state. On
// success the diff is merged into the slots and the entity is Filled again.
func (e *Entity) Update(ctx context.Context) (bool, error) {
	if e.state != Updated || len(e.updated) == 0 {
		return false, nil
	}

	var b database.Builder
	b.Write("UPDATE ").Ident(e.Name()).Write(" SET ")
	first := true
	for _, col := range e.Schema().Columns {
		value, ok := e.updated[col.Name]
		if !ok {
			continue
		}
		v, err := e.bindable(col.Name, value)
		if err != nil {
			return false, err
		}
		if !first {
			b.Write(", ")
		}
		first = false
		b.Ident(col.Name).Write(" = ").Bind(col.Bind, v)
	}
	b.Write(" WHERE ")
	if err := e.WherePrimaryKey(&b, e.keyValues()); err != nil {
		return false, err
	}

	if _, err := e.exec(ctx, b.Build()); err != nil {
		return false, err
	}

	for name, v := range e.updated {
		col, _ := e.Column(name)
		e.slots[col.Position] = v
	}
	e.updated = map[string]any{}
	e.state = Filled
	return true, nil
}

// Delete removes the row of a Filled entity. It returns false in any other
// state. On success the entity is Deleted and accepts no further writes.
func (e *Entity) Delete(ctx context.Context) (bool, error) {
	if e.state != Filled {
		return false, nil
	}

	var b database.Builder
	b.Write("DELETE FROM ").Ident(e.Name()).Write(" WHERE ")
	if err := e.WherePrimaryKey(&b, e.keyValues()); err != nil {
		return false, err
	}

	if _, err := e.exec(ctx, b.Build()); err != nil {
		return false, err
	}
	e.state = Deleted
	return true, nil
}

// bindable checks value against the nullability of name and converts it
// to its bind value.
func (e *Entity) bindable(name string, value any) (any, error) {
	col, _ := e.Column(name)
	if value == nil {
		if !col.Nullable {
			return nil, errs.Newf(errs.ErrKindInvalidPropertyValue, "%s.%s cannot be NULL", e.Name(), name)
		}
		return nil, nil
	}
	return table.Coerce(col, value)
}

func (e *Entity) keyValues() []any {
	pks := e.Schema().PrimaryKeys
	values := make([]any, len(pks))
	for i, pk := range pks {
		col, _ := e.Column(pk.Column)
		values[i] = e.slots[col.Position]
	}
	return values
}

func (e *Entity) exec(ctx context.Context, stmt database.Stmt) (database.Result, error) {
	res, err := e.DB().Exec(ctx, stmt.SQL, stmt.Args...)
	e.Logger().Statement(stmt.SQL, stmt.Binds, err)
	return res, err
}

func (e *Entity) unknown(name string) error {
	return errs.Newf(errs.ErrKindInvalidProperty, "%s has no column %q", e.Name(), name)
}
