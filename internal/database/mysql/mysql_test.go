package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectBootstrap(mock sqlmock.Sqlmock, name string, tables ...string) {
	mock.ExpectQuery(QueryCurrentDatabase).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow(name))
	rows := sqlmock.NewRows([]string{"Tables_in_" + name})
	for _, t := range tables {
		rows.AddRow(t)
	}
	mock.ExpectQuery(QueryListTables).WillReturnRows(rows)
}

func TestFromDB(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "departments", "employees")

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	assert.Equal(t, database.DriverMySQL, conn.Driver())
	assert.Equal(t, "employees", conn.Name())
	assert.Equal(t, []string{"departments", "employees"}, conn.Tables())
	assert.True(t, conn.HasTable("employees"))
	assert.False(t, conn.HasTable("salaries"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFromDB_TablesIsACopy(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "employees")

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	tables := conn.Tables()
	tables[0] = "mutated"
	assert.Equal(t, []string{"employees"}, conn.Tables())
}

func TestFromDB_NoDatabaseSelected(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(QueryCurrentDatabase).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow(nil))

	_, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestFromDB_UnsupportedDriver(t *testing.T) {
	db, _ := newMock(t)

	_, err := FromDB(context.Background(), db, database.Driver("pgsql"), nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestFromDB_ListTablesFails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(QueryCurrentDatabase).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow("employees"))
	mock.ExpectQuery(QueryListTables).
		WillReturnError(&gomysql.MySQLError{Number: 1044, Message: "Access denied"})

	_, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	assert.True(t, errs.IsPermissionDenied(err))
}

func TestShowColumns(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "employees")
	mock.ExpectQuery("SHOW COLUMNS FROM `employees`").
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("emp_no", "int", "NO", "PRI", nil, "auto_increment").
			AddRow("gender", "enum('M','F')", "NO", "", "M", ""))

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	cols, err := conn.ShowColumns(context.Background(), "employees")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "emp_no", cols[0].Field)
	assert.Equal(t, "PRI", cols[0].Key)
	assert.Nil(t, cols[0].Default)
	assert.Equal(t, "auto_increment", cols[0].Extra)

	require.NotNil(t, cols[1].Default)
	assert.Equal(t, "M", *cols[1].Default)
	assert.Equal(t, "enum('M','F')", cols[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferencingKeys(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "departments", "dept_emp")
	mock.ExpectQuery(QueryReferencingKeys).
		WithArgs("departments").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("dept_emp", "dept_no", "dept_no").
			AddRow("dept_manager", "dept_no", "dept_no"))

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	fks, err := conn.ReferencingKeys(context.Background(), "departments")
	require.NoError(t, err)
	assert.Equal(t, []database.ForeignKey{
		{Table: "dept_emp", Column: "dept_no", ReferencedColumn: "dept_no"},
		{Table: "dept_manager", Column: "dept_no", ReferencedColumn: "dept_no"},
	}, fks)
}

func TestExec_ReportsLastInsertID(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "employees")
	mock.ExpectExec("INSERT INTO `employees` (`first_name`) VALUES (?)").
		WithArgs("Géza").
		WillReturnResult(sqlmock.NewResult(500001, 1))

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	res, err := conn.Exec(context.Background(), "INSERT INTO `employees` (`first_name`) VALUES (?)", "Géza")
	require.NoError(t, err)
	assert.Equal(t, database.Result{RowsAffected: 1, LastInsertID: 500001}, res)
}

func TestQueryRow_NoRowsIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "employees")
	mock.ExpectQuery("SELECT 1 FROM `employees` WHERE `emp_no` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	var one int
	err = conn.QueryRow(context.Background(), "SELECT 1 FROM `employees` WHERE `emp_no` = ?", int64(1)).Scan(&one)
	assert.True(t, errs.IsNotFound(err))
}

func TestQuery_MapsDriverError(t *testing.T) {
	db, mock := newMock(t)
	expectBootstrap(mock, "employees", "employees")
	mock.ExpectQuery("SELECT `nope` FROM `employees`").
		WillReturnError(&gomysql.MySQLError{Number: 1054, Message: "Unknown column 'nope'"})

	conn, err := FromDB(context.Background(), db, database.DriverMySQL, nil)
	require.NoError(t, err)

	_, err = conn.Query(context.Background(), "SELECT `nope` FROM `employees`")
	assert.True(t, errs.IsQueryFailed(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"nil", nil, errs.ErrKindUnknown},
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"duplicate", &gomysql.MySQLError{Number: 1062}, errs.ErrKindQueryFailed},
		{"fk violation", &gomysql.MySQLError{Number: 1452}, errs.ErrKindQueryFailed},
		{"access denied", &gomysql.MySQLError{Number: 1045}, errs.ErrKindConnectionFailed},
		{"table access", &gomysql.MySQLError{Number: 1142}, errs.ErrKindPermissionDenied},
		{"other server error", &gomysql.MySQLError{Number: 1205}, errs.ErrKindQueryFailed},
		{"invalid conn", gomysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"plain", errors.New("boom"), errs.ErrKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "op")
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig()
	cfg.Host = "db.local"
	cfg.Database = "employees"
	cfg.Username = "hr"
	cfg.Password = "secret"
	cfg.ConnectTimeout = 5 * time.Second
	cfg.Options = map[string]string{"autocommit": "true"}

	mc, err := gomysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "hr", mc.User)
	assert.Equal(t, "secret", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db.local:3306", mc.Addr)
	assert.Equal(t, "employees", mc.DBName)
	assert.Equal(t, 5*time.Second, mc.Timeout)
	assert.Equal(t, "true", mc.Params["autocommit"])
}

func TestBuildDSN_DefaultPort(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverMySQL, Host: "h", Database: "d"}

	mc, err := gomysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "h:3306", mc.Addr)
}
