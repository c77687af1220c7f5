package schema_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/database/mysql"
	"github.com/dominicus75/testtask/internal/dbtest"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/schema"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		declared string
		want     schema.ScalarType
	}{
		{"int", schema.Integer},
		{"int(11) unsigned", schema.Integer},
		{"tinyint(1)", schema.Integer},
		{"decimal(10,2)", schema.Integer},
		{"varchar(14)", schema.Text},
		{"CHAR(4)", schema.Text},
		{"longtext", schema.Text},
		{"date", schema.Text},
		{"datetime", schema.Text},
		{"enum('M','F')", schema.Text},
		{"set('a','b')", schema.Text},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.TypeOf(tt.declared))
		})
	}
}

func TestBuild_Employees(t *testing.T) {
	f := dbtest.Fixtures["employees"]
	tbl, err := schema.Build("employees", f.Columns, f.Referers)
	require.NoError(t, err)

	assert.Equal(t, "employees", tbl.Name)
	assert.Equal(t, dbtest.ColumnNames("employees"), tbl.ColumnNames())
	assert.Equal(t, []schema.PrimaryKey{{Column: "emp_no", AutoIncrement: true}}, tbl.PrimaryKeys)
	assert.Len(t, tbl.Relations, 4)
	assert.Equal(t, schema.Relation{RefererTable: "dept_emp", RefererColumn: "emp_no", ReferencedColumn: "emp_no"}, tbl.Relations[0])

	c, ok := tbl.Column("first_name")
	require.True(t, ok)
	assert.Equal(t, ":first_name", c.Bind)
	assert.Equal(t, schema.Text, c.Type)
	assert.False(t, c.Nullable)
	assert.Equal(t, 2, c.Position)

	c, ok = tbl.Column("emp_no")
	require.True(t, ok)
	assert.Equal(t, schema.Integer, c.Type)
	assert.True(t, c.AutoIncrement)

	_, ok = tbl.Column("salary")
	assert.False(t, ok)
}

func TestBuild_CompositeKeyKeepsCatalogOrder(t *testing.T) {
	f := dbtest.Fixtures["titles"]
	tbl, err := schema.Build("titles", f.Columns, nil)
	require.NoError(t, err)

	assert.Equal(t, []schema.PrimaryKey{
		{Column: "emp_no"}, {Column: "title"}, {Column: "from_date"},
	}, tbl.PrimaryKeys)
	assert.Empty(t, tbl.Relations)

	c, _ := tbl.Column("to_date")
	assert.True(t, c.Nullable)
}

func TestBuild_NoPrimaryKey(t *testing.T) {
	_, err := schema.Build("log", []database.ColumnInfo{
		{Field: "line", Type: "text", Null: "YES"},
	}, nil)
	assert.True(t, errs.IsSchema(err))
}

func TestBuild_DuplicateColumn(t *testing.T) {
	_, err := schema.Build("t", []database.ColumnInfo{
		{Field: "id", Type: "int", Null: "NO", Key: "PRI"},
		{Field: "id", Type: "int", Null: "NO"},
	}, nil)
	assert.True(t, errs.IsSchema(err))
}

func TestBuild_Default(t *testing.T) {
	def := "M"
	tbl, err := schema.Build("t", []database.ColumnInfo{
		{Field: "id", Type: "int", Null: "NO", Key: "PRI"},
		{Field: "gender", Type: "enum('M','F')", Null: "NO", Default: &def},
	}, nil)
	require.NoError(t, err)

	c, _ := tbl.Column("gender")
	require.NotNil(t, c.Default)
	assert.Equal(t, "M", *c.Default)
}

func TestRegistry_LookupCaches(t *testing.T) {
	conn, mock := dbtest.Open(t)
	dbtest.ExpectIntrospection(mock, "departments")

	reg := schema.NewRegistry(conn, nil)
	assert.False(t, reg.Cached("departments"))

	first, err := reg.Lookup(context.Background(), "departments")
	require.NoError(t, err)
	second, err := reg.Lookup(context.Background(), "departments")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, reg.Cached("departments"))
	assert.Equal(t, conn, reg.DB())
}

func TestRegistry_ConcurrentLookupIntrospectsOnce(t *testing.T) {
	conn, mock := dbtest.Open(t)
	dbtest.ExpectIntrospection(mock, "salaries")
	reg := schema.NewRegistry(conn, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Lookup(context.Background(), "salaries")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestRegistry_UnknownTable(t *testing.T) {
	conn, _ := dbtest.Open(t)
	reg := schema.NewRegistry(conn, nil)

	_, err := reg.Lookup(context.Background(), "projects")
	require.Error(t, err)
	assert.True(t, errs.IsSchema(err))
}

func TestRegistry_CatalogFailureIsNotCached(t *testing.T) {
	conn, mock := dbtest.Open(t)
	mock.ExpectQuery(mysql.ShowColumnsSQL("employees")).WillReturnError(errors.New("lost connection"))
	dbtest.ExpectIntrospection(mock, "employees")

	reg := schema.NewRegistry(conn, nil)

	_, err := reg.Lookup(context.Background(), "employees")
	require.Error(t, err)
	assert.True(t, errs.IsSchema(err))
	assert.False(t, reg.Cached("employees"))

	tbl, err := reg.Lookup(context.Background(), "employees")
	require.NoError(t, err)
	assert.Equal(t, "employees", tbl.Name)
}

func TestRegistry_RelationQueryFailure(t *testing.T) {
	conn, mock := dbtest.Open(t)
	dbtest.ExpectColumns(mock, "departments", dbtest.Fixtures["departments"].Columns)
	mock.ExpectQuery(mysql.QueryReferencingKeys).WithArgs("departments").WillReturnError(errors.New("denied"))

	_, err := schema.NewRegistry(conn, nil).Lookup(context.Background(), "departments")
	assert.True(t, errs.IsSchema(err))
}
