// Package schema turns catalog rows into table descriptors.
//
// Build derives columns, primary keys and relations from one column listing.
// Registry runs the catalog queries once per table name and caches the result
// for the lifetime of the connection.
package schema

import (
	"regexp"
	"strings"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
)

var textType = regexp.MustCompile(`(?i)char|text|date|enum|set`)

// TypeOf maps a declared catalog type onto a ScalarType. Strings, dates,
// enums and sets are Text; everything else, booleans included, is Integer.
func TypeOf(declared string) ScalarType {
	if textType.MatchString(declared) {
		return Text
	}
	return Integer
}

// BindToken returns the bind token recorded for column.
func BindToken(column string) string {
	return ":" + column
}

// Build derives a Table from the catalog rows of one table in a single pass.
// A table without a primary key is a schema error.
func Build(name string, cols []database.ColumnInfo, fks []database.ForeignKey) (*Table, error) {
	if len(cols) == 0 {
		return nil, errs.Newf(errs.ErrKindSchema, "table %q has no columns", name)
	}

	t := &Table{
		Name:    name,
		Columns: make([]Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}

	for _, ci := range cols {
		if _, dup := t.index[ci.Field]; dup {
			return nil, errs.Newf(errs.ErrKindSchema, "table %q lists column %q twice", name, ci.Field)
		}
		col := Column{
			Name:          ci.Field,
			Bind:          BindToken(ci.Field),
			Type:          TypeOf(ci.Type),
			Nullable:      strings.EqualFold(ci.Null, "YES"),
			Position:      len(t.Columns),
			DeclaredType:  ci.Type,
			Default:       ci.Default,
			AutoIncrement: strings.Contains(strings.ToLower(ci.Extra), "auto_increment"),
		}
		t.index[col.Name] = col.Position
		t.Columns = append(t.Columns, col)

		if strings.EqualFold(ci.Key, "PRI") {
			t.PrimaryKeys = append(t.PrimaryKeys, PrimaryKey{Column: col.Name, AutoIncrement: col.AutoIncrement})
		}
	}

	if len(t.PrimaryKeys) == 0 {
		return nil, errs.Newf(errs.ErrKindSchema, "table %q has no primary key", name)
	}

	for _, fk := range fks {
		t.Relations = append(t.Relations, Relation{
			RefererTable:     fk.Table,
			RefererColumn:    fk.Column,
			ReferencedColumn: fk.ReferencedColumn,
		})
	}

	return t, nil
}
