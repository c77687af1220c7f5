package main

import (
	"bytes"
	"context"
	"database/sql/driver"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicus75/testtask/internal/config"
	"github.com/dominicus75/testtask/internal/dbtest"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/schema"
)

func testApp(t *testing.T) (*app, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	conn, mock := dbtest.Open(t)
	var out bytes.Buffer
	a := &app{
		ctx:  context.Background(),
		cfg:  config.New("", nil),
		log:  logger.Nop(),
		out:  &out,
		conn: conn,
		reg:  schema.NewRegistry(conn, nil),
	}
	return a, mock, &out
}

func TestTables(t *testing.T) {
	a, _, out := testApp(t)

	require.NoError(t, (&TablesCmd{}).Run(a))
	assert.Equal(t, "departments\ndept_emp\ndept_manager\nemployees\nsalaries\ntitles\n", out.String())
}

func TestDescribe(t *testing.T) {
	a, mock, out := testApp(t)
	dbtest.ExpectIntrospection(mock, "employees")

	require.NoError(t, (&DescribeCmd{Table: "employees"}).Run(a))
	s := out.String()
	assert.Contains(t, s, "table employees")
	assert.Regexp(t, `emp_no\s+integer\s+int\s+NO\s+PRI auto_increment`, s)
	assert.Regexp(t, `first_name\s+text\s+varchar\(14\)\s+NO`, s)
	assert.Contains(t, s, "salaries.emp_no -> emp_no")
}

func TestDescribe_UnknownTable(t *testing.T) {
	a, _, _ := testApp(t)

	err := (&DescribeCmd{Table: "payroll"}).Run(a)
	assert.True(t, errs.IsSchema(err))
}

func TestEmployee(t *testing.T) {
	a, mock, out := testApp(t)
	dbtest.ExpectIntrospection(mock, "employees")
	mock.ExpectQuery("SELECT * FROM `employees` WHERE `emp_no` = ?").
		WithArgs(int64(42)).
		WillReturnRows(dbtest.Rows("employees"))

	err := (&EmployeeCmd{EmpNo: 42}).Run(a)
	assert.True(t, errs.IsNotFound(err))
	assert.Empty(t, out.String())
}

func TestConfCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	var out bytes.Buffer
	a := &app{ctx: context.Background(), cfg: cfg, log: logger.Nop(), out: &out}

	require.NoError(t, (&ConfGetCmd{Key: "log.level"}).Run(a))
	assert.Equal(t, "\"info\"\n", out.String())

	require.NoError(t, (&ConfSetCmd{Key: "http.addr", Value: ":9000"}).Run(a))
	require.NoError(t, (&ConfUnsetCmd{Key: "log.level"}).Run(a))
	assert.True(t, errs.IsNotFound((&ConfUnsetCmd{Key: "log.level"}).Run(a)))
	assert.True(t, errs.IsNotFound((&ConfGetCmd{Key: "nope"}).Run(a)))

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", saved.HTTPAddr())
	assert.False(t, saved.Has("log.level"))
}


func TestDeptRename(t *testing.T) {
	a, mock, out := testApp(t)
	dbtest.ExpectIntrospection(mock, "departments")
	mock.ExpectQuery("SELECT * FROM `departments` WHERE `dept_no` = ?").
		WithArgs("d005").
		WillReturnRows(dbtest.Rows("departments", []driver.Value{"d005", "Development"}))
	mock.ExpectExec("UPDATE `departments` SET `dept_name` = ? WHERE `dept_no` = ?").
		WithArgs("Engineering", "d005").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, (&DeptRenameCmd{DeptNo: "d005", Name: "Engineering"}).Run(a))
	assert.JSONEq(t, `{"dept_no":"d005","dept_name":"Engineering"}`, out.String())
}
