// Package dbtest provides sqlmock-backed connections and catalog fixtures
// of the employees sample database for package tests.
//
// Usage:
//
//	conn, mock := dbtest.Open(t)
//	reg := schema.NewRegistry(conn, nil)
//	dbtest.ExpectIntrospection(mock, "employees")
//	tbl, err := table.New(ctx, reg, "employees")
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/database/mysql"
)

// DatabaseName is the schema name reported by Open.
const DatabaseName = "employees"

// Fixture is the catalog description of one sample table.
type Fixture struct {
	Columns  []database.ColumnInfo
	Referers []database.ForeignKey // foreign keys pointing at the table
}

func col(field, typ, null, key, extra string) database.ColumnInfo {
	return database.ColumnInfo{Field: field, Type: typ, Null: null, Key: key, Extra: extra}
}

// Fixtures mirrors the employees sample database, with emp_no made
// auto-increment.
var Fixtures = map[string]Fixture{
	"employees": {
		Columns: []database.ColumnInfo{
			col("emp_no", "int", "NO", "PRI", "auto_increment"),
			col("birth_date", "date", "NO", "", ""),
			col("first_name", "varchar(14)", "NO", "", ""),
			col("last_name", "varchar(16)", "NO", "", ""),
			col("gender", "enum('M','F')", "NO", "", ""),
			col("hire_date", "date", "NO", "", ""),
		},
		Referers: []database.ForeignKey{
			{Table: "dept_emp", Column: "emp_no", ReferencedColumn: "emp_no"},
			{Table: "dept_manager", Column: "emp_no", ReferencedColumn: "emp_no"},
			{Table: "salaries", Column: "emp_no", ReferencedColumn: "emp_no"},
			{Table: "titles", Column: "emp_no", ReferencedColumn: "emp_no"},
		},
	},
	"departments": {
		Columns: []database.ColumnInfo{
			col("dept_no", "char(4)", "NO", "PRI", ""),
			col("dept_name", "varchar(40)", "NO", "UNI", ""),
		},
		Referers: []database.ForeignKey{
			{Table: "dept_emp", Column: "dept_no", ReferencedColumn: "dept_no"},
			{Table: "dept_manager", Column: "dept_no", ReferencedColumn: "dept_no"},
		},
	},
	"dept_emp": {
		Columns: []database.ColumnInfo{
			col("emp_no", "int", "NO", "PRI", ""),
			col("dept_no", "char(4)", "NO", "PRI", ""),
			col("from_date", "date", "NO", "", ""),
			col("to_date", "date", "NO", "", ""),
		},
	},
	"dept_manager": {
		Columns: []database.ColumnInfo{
			col("emp_no", "int", "NO", "PRI", ""),
			col("dept_no", "char(4)", "NO", "PRI", ""),
			col("from_date", "date", "NO", "", ""),
			col("to_date", "date", "NO", "", ""),
		},
	},
	"salaries": {
		Columns: []database.ColumnInfo{
			col("emp_no", "int", "NO", "PRI", ""),
			col("salary", "int", "NO", "", ""),
			col("from_date", "date", "NO", "PRI", ""),
			col("to_date", "date", "NO", "", ""),
		},
	},
	"titles": {
		Columns: []database.ColumnInfo{
			col("emp_no", "int", "NO", "PRI", ""),
			col("title", "varchar(50)", "NO", "PRI", ""),
			col("from_date", "date", "NO", "PRI", ""),
			col("to_date", "date", "YES", "", ""),
		},
	},
}

// Tables returns the sample table names, sorted.
func Tables() []string {
	names := make([]string, 0, len(Fixtures))
	for name := range Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns the column names of a sample table in catalog order.
func ColumnNames(table string) []string {
	cols := Fixtures[table].Columns
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Field
	}
	return names
}

// NewMock returns a sqlmock handle that matches SQL text exactly.
func NewMock(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

// Open returns a connection whose bootstrap saw every sample table. The
// mock's expectations are checked when the test ends.
func Open(t testing.TB) (*mysql.Conn, sqlmock.Sqlmock) {
	return OpenWith(t, Tables()...)
}

// OpenWith is Open with an explicit table list.
func OpenWith(t testing.TB, tables ...string) (*mysql.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := NewMock(t)
	ExpectBootstrap(mock, DatabaseName, tables...)

	conn, err := mysql.FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
	})
	return conn, mock
}

// ExpectBootstrap expects the connection bootstrap queries.
func ExpectBootstrap(mock sqlmock.Sqlmock, name string, tables ...string) {
	mock.ExpectQuery(mysql.QueryCurrentDatabase).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow(name))

	rows := sqlmock.NewRows([]string{"Tables_in_" + name})
	for _, t := range tables {
		rows.AddRow(t)
	}
	mock.ExpectQuery(mysql.QueryListTables).WillReturnRows(rows)
}

// ExpectIntrospection expects the catalog queries for a sample table.
func ExpectIntrospection(mock sqlmock.Sqlmock, table string) {
	f := Fixtures[table]
	ExpectColumns(mock, table, f.Columns)
	ExpectReferers(mock, table, f.Referers)
}

// ExpectColumns expects the column listing of table.
func ExpectColumns(mock sqlmock.Sqlmock, table string, cols []database.ColumnInfo) {
	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	for _, c := range cols {
		var def driver.Value
		if c.Default != nil {
			def = *c.Default
		}
		rows.AddRow(c.Field, c.Type, c.Null, c.Key, def, c.Extra)
	}
	mock.ExpectQuery(mysql.ShowColumnsSQL(table)).WillReturnRows(rows)
}

// ExpectReferers expects the foreign key listing of table.
func ExpectReferers(mock sqlmock.Sqlmock, table string, fks []database.ForeignKey) {
	rows := sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "REFERENCED_COLUMN_NAME"})
	for _, fk := range fks {
		rows.AddRow(fk.Table, fk.Column, fk.ReferencedColumn)
	}
	mock.ExpectQuery(mysql.QueryReferencingKeys).WithArgs(table).WillReturnRows(rows)
}

// Rows builds a result set with the columns of a sample table.
func Rows(table string, values ...[]driver.Value) *sqlmock.Rows {
	rows := sqlmock.NewRows(ColumnNames(table))
	for _, v := range values {
		rows.AddRow(v...)
	}
	return rows
}

// Exists builds the single-column result of an EXISTS probe.
func Exists(found bool) *sqlmock.Rows {
	v := int64(0)
	if found {
		v = 1
	}
	return sqlmock.NewRows([]string{"EXISTS"}).AddRow(v)
}
