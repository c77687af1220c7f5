package mysql

import (
	"context"
	"database/sql"

	"github.com/dominicus75/testtask/internal/database"
)

// QueryReferencingKeys lists the key columns of every foreign key that
// points at a table of the current database.
const QueryReferencingKeys = "SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_COLUMN_NAME " +
	"FROM information_schema.KEY_COLUMN_USAGE " +
	"WHERE REFERENCED_TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME = ? " +
	"ORDER BY TABLE_NAME, COLUMN_NAME"

// ShowColumnsSQL returns the column listing statement for table.
func ShowColumnsSQL(table string) string {
	return "SHOW COLUMNS FROM " + database.QuoteIdent(table)
}

// ShowColumns returns the catalog rows of table in declaration order.
func (c *Conn) ShowColumns(ctx context.Context, table string) ([]database.ColumnInfo, error) {
	rows, err := c.db.QueryContext(ctx, ShowColumnsSQL(table))
	if err != nil {
		return nil, mapError(err, "show columns from "+table)
	}
	defer rows.Close()

	var cols []database.ColumnInfo
	for rows.Next() {
		var (
			col  database.ColumnInfo
			def  sql.NullString
			key  sql.NullString
			null sql.NullString
		)
		if err := rows.Scan(&col.Field, &col.Type, &null, &key, &def, &col.Extra); err != nil {
			return nil, mapError(err, "scan column of "+table)
		}
		col.Null = null.String
		col.Key = key.String
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate columns of "+table)
	}
	return cols, nil
}

// ReferencingKeys returns the foreign key columns that reference table.
func (c *Conn) ReferencingKeys(ctx context.Context, table string) ([]database.ForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, QueryReferencingKeys, table)
	if err != nil {
		return nil, mapError(err, "list foreign keys referencing "+table)
	}
	defer rows.Close()

	var fks []database.ForeignKey
	for rows.Next() {
		var fk database.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.ReferencedColumn); err != nil {
			return nil, mapError(err, "scan foreign key")
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate foreign keys")
	}
	return fks, nil
}
