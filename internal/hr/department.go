package hr

import (
	"context"
	"strings"

	"github.com/dominicus75/testtask/internal/entity"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/table"
)

// Department is a departments row.
type Department struct {
	*entity.Entity

	dir *Directory
}

// Department loads deptNo.
func (d *Directory) Department(ctx context.Context, deptNo string) (*Department, error) {
	tbl, err := d.table(ctx, tableDepartments)
	if err != nil {
		return nil, err
	}
	e, err := entity.Load(ctx, tbl, deptNo)
	if err != nil {
		return nil, err
	}
	return &Department{Entity: e, dir: d}, nil
}

// CreateDepartment inserts a new department.
func (d *Directory) CreateDepartment(ctx context.Context, deptNo, name string) (*Department, error) {
	tbl, err := d.table(ctx, tableDepartments)
	if err != nil {
		return nil, err
	}
	e := entity.New(tbl)
	if err := e.SetProperties(map[string]any{"dept_no": deptNo, "dept_name": name}); err != nil {
		return nil, err
	}
	ok, err := e.Insert(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "department %q was not created", deptNo)
	}
	return &Department{Entity: e, dir: d}, nil
}

// DeptNo returns the department key.
func (dept *Department) DeptNo() string {
	s, _ := dept.Text("dept_no")
	return s
}

// Rename changes dept_name.
func (dept *Department) Rename(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, errs.New(errs.ErrKindInvalidInput, "department name is empty")
	}
	if err := dept.UpdateProperty("dept_name", name); err != nil {
		return false, err
	}
	return dept.Update(ctx)
}

// Remove deletes the department row.
func (dept *Department) Remove(ctx context.Context) (bool, error) {
	return dept.Delete(ctx)
}

// Summary returns the department's columns plus its current manager
// (emp_no and full name), nil when it has none.
func (dept *Department) Summary(ctx context.Context) (table.Row, error) {
	out := dept.Properties()
	out["manager"] = nil
	out["manager_name"] = nil

	mgr, err := dept.dir.table(ctx, tableDeptManager)
	if err != nil {
		return nil, err
	}
	rows, err := mgr.SelectWhere(ctx, "dept_no", dept.DeptNo(), "from_date", 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return out, nil
	}

	empNo, ok := table.AsInt(rows[0]["emp_no"])
	if !ok {
		return out, nil
	}
	out["manager"] = empNo

	emps, err := dept.dir.table(ctx, tableEmployees)
	if err != nil {
		return nil, err
	}
	row, err := emps.Select(ctx, empNo)
	if err != nil {
		return nil, err
	}
	if len(row) > 0 {
		first, _ := table.AsText(row["first_name"])
		last, _ := table.AsText(row["last_name"])
		out["manager_name"] = strings.TrimSpace(first + " " + last)
	}
	return out, nil
}
