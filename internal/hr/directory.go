// Package hr builds the employees sample domain out of entities: an
// Employee owns the time-versioned rows of the tables that reference it,
// a Department knows its current manager.
//
// Multi-row operations run as independent statements. A failure partway
// leaves the earlier rows in place.
package hr

import (
	"context"
	"database/sql"
	"time"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/entity"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/schema"
	"github.com/dominicus75/testtask/internal/table"
)

// OpenEnded is the to_date of a period that has not ended.
const OpenEnded = "9999-01-01"

// DefaultTitle is given to a new hire without one.
const DefaultTitle = "Staff"

const (
	tableEmployees   = "employees"
	tableDepartments = "departments"
	tableDeptEmp     = "dept_emp"
	tableDeptManager = "dept_manager"
	tableSalaries    = "salaries"
	tableTitles      = "titles"
)

// relatedTables are the employee-owned tables, in the order they are loaded.
var relatedTables = []string{tableDeptEmp, tableDeptManager, tableSalaries, tableTitles}

// Directory is the entry point of the hr domain.
type Directory struct {
	reg *schema.Registry
	now func() time.Time
	log *logger.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock replaces time.Now as the source of today's date.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// NewDirectory creates a Directory over reg.
func NewDirectory(reg *schema.Registry, log *logger.Logger, opts ...Option) *Directory {
	d := &Directory{
		reg: reg,
		now: time.Now,
		log: logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ping checks the database connection.
func (d *Directory) Ping(ctx context.Context) error {
	return d.reg.DB().Ping(ctx)
}

func (d *Directory) today() string {
	return d.now().Format(time.DateOnly)
}

func (d *Directory) table(ctx context.Context, name string) (*table.Table, error) {
	return table.New(ctx, d.reg, name)
}

// nextEmpNo returns MAX(emp_no)+1, or 1 on an empty table.
func (d *Directory) nextEmpNo(ctx context.Context) (int64, error) {
	var b database.Builder
	b.Write("SELECT MAX(").Ident("emp_no").Write(") FROM ").Ident(tableEmployees)
	stmt := b.Build()

	var last sql.NullInt64
	err := d.reg.DB().QueryRow(ctx, stmt.SQL).Scan(&last)
	d.log.Statement(stmt.SQL, nil, err)
	if err != nil {
		return 0, err
	}
	return last.Int64 + 1, nil
}

// departmentName returns the dept_name of deptNo, or "" when it does not
// exist.
func (d *Directory) departmentName(ctx context.Context, deptNo string) (string, error) {
	if deptNo == "" {
		return "", nil
	}
	tbl, err := d.table(ctx, tableDepartments)
	if err != nil {
		return "", err
	}
	row, err := tbl.Select(ctx, deptNo)
	if err != nil {
		return "", err
	}
	name, _ := table.AsText(row["dept_name"])
	return name, nil
}

// --- operations used by the HTTP shell and the CLI ---

// EmployeeSummary loads empNo and returns its summary.
func (d *Directory) EmployeeSummary(ctx context.Context, empNo int64) (table.Row, error) {
	emp, err := d.Employee(ctx, empNo)
	if err != nil {
		return nil, err
	}
	return emp.Summary(ctx)
}

// Hire creates a new employee and returns its emp_no.
func (d *Directory) Hire(ctx context.Context, h Hire) (int64, error) {
	emp, err := d.NewEmployee(ctx)
	if err != nil {
		return 0, err
	}
	if err := emp.Create(ctx, h); err != nil {
		return 0, err
	}
	return emp.EmpNo(), nil
}

// SetSalary gives empNo a new salary from the given date (today when
// empty), closing the open salary period first.
func (d *Directory) SetSalary(ctx context.Context, empNo, salary int64, from string) error {
	if salary <= 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "salary must be positive, got %d", salary)
	}
	emp, err := d.Employee(ctx, empNo)
	if err != nil {
		return err
	}
	if from == "" {
		from = d.today()
	}

	// A second change on the same day amends the current row.
	if latest := emp.Related(tableSalaries); latest != nil && latest.State() == entity.Filled {
		if since, _ := latest.Text("from_date"); since == from {
			if err := latest.UpdateProperty("salary", salary); err != nil {
				return err
			}
			_, err := latest.Update(ctx)
			return err
		}
	}

	if err := emp.closePeriod(ctx, tableSalaries, from); err != nil {
		return err
	}
	ok, err := emp.AssignSalary(ctx, salary, from)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Newf(errs.ErrKindQueryFailed, "salary of %d was not recorded", empNo)
	}
	return nil
}

// DepartmentSummary loads deptNo and returns its summary.
func (d *Directory) DepartmentSummary(ctx context.Context, deptNo string) (table.Row, error) {
	dept, err := d.Department(ctx, deptNo)
	if err != nil {
		return nil, err
	}
	return dept.Summary(ctx)
}
