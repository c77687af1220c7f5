// Package mysql is the MySQL backend of database.DB.
//
// Usage:
//
//	conn, err := mysql.Open(ctx, cfg, log)
//	if err != nil { ... }
//	defer conn.Close()
//
//	fmt.Println(conn.Name(), conn.Tables())
package mysql

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/logger"
)

// Bootstrap queries, run once per connection.
const (
	QueryCurrentDatabase = "SELECT DATABASE()"
	QueryListTables      = "SHOW TABLES"
)

// Conn is a MySQL implementation of database.DB over a single connection.
// The driver, database name and table list are resolved once in Open and
// never refreshed. Conn is not meant to be shared between goroutines that
// issue statements concurrently.
type Conn struct {
	db     *sql.DB
	driver database.Driver
	name   string
	tables []string
	known  map[string]struct{}
	log    *logger.Logger
}

// Open connects to MySQL using cfg and resolves the database name and
// table list. Any failure is fatal: no partially initialised Conn is
// returned.
func Open(ctx context.Context, cfg *database.Config, log *logger.Logger) (*Conn, error) {
	if err := cfg.Driver.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(string(cfg.Driver), buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "invalid DSN", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err, "ping failed")
	}

	conn, err := FromDB(ctx, db, cfg.Driver, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

// FromDB runs the connection bootstrap over an already opened handle.
// Open uses it; tests use it with a mocked *sql.DB.
func FromDB(ctx context.Context, db *sql.DB, driver database.Driver, log *logger.Logger) (*Conn, error) {
	if err := driver.Validate(); err != nil {
		return nil, err
	}

	c := &Conn{db: db, driver: driver, log: logger.OrNop(log)}
	if err := c.loadName(ctx); err != nil {
		return nil, err
	}
	if err := c.loadTables(ctx); err != nil {
		return nil, err
	}

	c.log.With().
		Str("driver", string(driver)).
		Str("database", c.name).
		Int("tables", len(c.tables)).
		Logger().
		Info("database connection ready")
	return c, nil
}

func (c *Conn) loadName(ctx context.Context) error {
	var name sql.NullString
	if err := c.db.QueryRowContext(ctx, QueryCurrentDatabase).Scan(&name); err != nil {
		return mapError(err, "failed to resolve database name")
	}
	if !name.Valid || name.String == "" {
		return errs.New(errs.ErrKindConfiguration, "no database selected on this server")
	}
	c.name = name.String
	return nil
}

func (c *Conn) loadTables(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, QueryListTables)
	if err != nil {
		return mapError(err, "failed to list tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return mapError(err, "error iterating tables")
	}

	c.tables = tables
	c.known = make(map[string]struct{}, len(tables))
	for _, t := range tables {
		c.known[t] = struct{}{}
	}
	return nil
}

// --- database.DB implementation ---

func (c *Conn) Driver() database.Driver { return c.driver }

func (c *Conn) Name() string { return c.name }

// Tables returns a copy of the table list.
func (c *Conn) Tables() []string {
	out := make([]string, len(c.tables))
	copy(out, c.tables)
	return out
}

func (c *Conn) HasTable(table string) bool {
	_, ok := c.known[table]
	return ok
}

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (c *Conn) Close() {
	_ = c.db.Close()
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &mysqlRow{row: c.db.QueryRowContext(ctx, query, args...)}
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Result{}, mapError(err, "statement failed")
	}

	var out database.Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return out, mapError(err, "rows affected unavailable")
	}
	if out.LastInsertID, err = res.LastInsertId(); err != nil {
		return out, mapError(err, "last insert id unavailable")
	}
	return out, nil
}

// --- sql.DB type wrappers ---

type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }

func (r *mysqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

type mysqlRow struct {
	row *sql.Row
}

func (r *mysqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	if err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}
