package database

import "context"

// DB is the central contract for all database operations.
// All layers above this package talk only to this interface;
// they never import the mysql package directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) (Result, error)

	// Driver is the active backend, resolved at connect time.
	Driver() Driver

	// Name is the active database (schema) name.
	Name() string

	// Tables lists the tables present when the connection was opened.
	Tables() []string

	// HasTable reports whether table is in Tables.
	HasTable(table string) bool

	// ShowColumns returns the catalog description of every column of
	// table, in declaration order.
	ShowColumns(ctx context.Context, table string) ([]ColumnInfo, error)

	// ReferencingKeys returns every foreign key declared by another table
	// (or the table itself) that references table.
	ReferencingKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}

// Result summarises an executed statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// ColumnInfo is one row of the catalog's column listing, as reported by
// the backend before any interpretation.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string  // "YES" or "NO"
	Key     string  // "PRI", "UNI", "MUL" or ""
	Default *string // nil when the column has no default
	Extra   string  // e.g. "auto_increment"
}

// ForeignKey describes one column of a foreign key that points at a table.
type ForeignKey struct {
	Table            string // table declaring the key
	Column           string // column in Table
	ReferencedColumn string // column in the referenced table
}
