package hr

import (
	"context"

	"github.com/dominicus75/testtask/internal/entity"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/table"
)

// Hire is the input of Employee.Create.
type Hire struct {
	Employee          map[string]any `json:"employee"`   // employees columns
	Department        string         `json:"department"` // dept_no
	Salary            int64          `json:"salary"`
	Title             string         `json:"title,omitempty"`
	ManagedDepartment string         `json:"managed_department,omitempty"`
}

// Employee is an employees row plus the latest row of every table that
// references it.
type Employee struct {
	*entity.Entity

	dir     *Directory
	related map[string]*entity.Entity
}

// NewEmployee returns an empty employee ready for Create.
func (d *Directory) NewEmployee(ctx context.Context) (*Employee, error) {
	tbl, err := d.table(ctx, tableEmployees)
	if err != nil {
		return nil, err
	}
	emp := &Employee{Entity: entity.New(tbl), dir: d, related: map[string]*entity.Entity{}}
	for _, name := range relatedTables {
		if !tbl.HasRelation(name) {
			continue
		}
		rel, err := d.table(ctx, name)
		if err != nil {
			return nil, err
		}
		emp.related[name] = entity.New(rel)
	}
	return emp, nil
}

// Employee loads empNo with the latest row of each related table.
func (d *Directory) Employee(ctx context.Context, empNo int64) (*Employee, error) {
	tbl, err := d.table(ctx, tableEmployees)
	if err != nil {
		return nil, err
	}
	e, err := entity.Load(ctx, tbl, empNo)
	if err != nil {
		return nil, err
	}

	emp := &Employee{Entity: e, dir: d, related: map[string]*entity.Entity{}}
	for _, name := range relatedTables {
		if !tbl.HasRelation(name) {
			continue
		}
		if err := emp.loadRelated(ctx, name, empNo); err != nil {
			return nil, err
		}
	}
	return emp, nil
}

func (emp *Employee) loadRelated(ctx context.Context, name string, empNo int64) error {
	rel, err := emp.dir.table(ctx, name)
	if err != nil {
		return err
	}
	rows, err := rel.SelectWhere(ctx, "emp_no", empNo, "from_date", 1)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		emp.related[name] = entity.New(rel)
		return nil
	}
	latest, err := entity.Hydrate(rel, rows[0])
	if err != nil {
		return err
	}
	emp.related[name] = latest
	return nil
}

// EmpNo returns the employee number, 0 before the row exists.
func (emp *Employee) EmpNo() int64 {
	n, _ := emp.Int("emp_no")
	return n
}

// HasRelatedEntity reports whether the employee tracks rows of name.
func (emp *Employee) HasRelatedEntity(name string) bool {
	_, ok := emp.related[name]
	return ok
}

// Related returns the latest row of name, or nil when name is not related.
func (emp *Employee) Related(name string) *entity.Entity {
	return emp.related[name]
}

// Create inserts the employee and then its department, salary, title and
// optional management rows, in that order. emp_no is assigned by the
// backend when the key is auto-increment, and as MAX(emp_no)+1 otherwise.
func (emp *Employee) Create(ctx context.Context, h Hire) error {
	values := make(map[string]any, len(h.Employee)+1)
	for k, v := range h.Employee {
		values[k] = v
	}
	if _, auto := emp.AutoIncrementKey(); !auto {
		if _, ok := values["emp_no"]; !ok {
			next, err := emp.dir.nextEmpNo(ctx)
			if err != nil {
				return err
			}
			values["emp_no"] = next
		}
	}

	if err := emp.SetProperties(values); err != nil {
		return err
	}
	ok, err := emp.Insert(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.ErrKindInvalidInput, "creating of employee failed: no employee data")
	}
	emp.dir.log.With().Int("emp_no", int(emp.EmpNo())).Logger().Info("employee created")

	if ok, err := emp.AssignDepartment(ctx, h.Department); err != nil || !ok {
		return failed(err, "adding of department %q failed", h.Department)
	}
	if ok, err := emp.AssignSalary(ctx, h.Salary, ""); err != nil || !ok {
		return failed(err, "adding of salary failed")
	}
	title := h.Title
	if title == "" {
		title = DefaultTitle
	}
	if ok, err := emp.AssignTitle(ctx, title, ""); err != nil || !ok {
		return failed(err, "adding of title %q failed", title)
	}
	if h.ManagedDepartment != "" {
		if ok, err := emp.Appoint(ctx, h.ManagedDepartment, ""); err != nil || !ok {
			return failed(err, "appointing to %q failed", h.ManagedDepartment)
		}
	}
	return nil
}

// AssignDepartment records the employee in deptNo from today. It returns
// false when deptNo does not exist, true without writing when the
// assignment already exists.
func (emp *Employee) AssignDepartment(ctx context.Context, deptNo string) (bool, error) {
	if !emp.HasRelatedEntity(tableDeptEmp) {
		return false, nil
	}
	found, err := emp.ValueExistsIn(ctx, tableDepartments, "dept_no", deptNo)
	if err != nil || !found {
		return false, err
	}
	return emp.record(ctx, tableDeptEmp,
		map[string]any{"emp_no": emp.EmpNo(), "dept_no": deptNo},
		map[string]any{"from_date": emp.dir.today(), "to_date": OpenEnded})
}

// AssignSalary records salary from the given date, today when empty.
func (emp *Employee) AssignSalary(ctx context.Context, salary int64, from string) (bool, error) {
	if from == "" {
		from = emp.dir.today()
	}
	return emp.record(ctx, tableSalaries,
		map[string]any{"emp_no": emp.EmpNo(), "from_date": from},
		map[string]any{"salary": salary, "to_date": OpenEnded})
}

// AssignTitle records title from the given date, today when empty.
func (emp *Employee) AssignTitle(ctx context.Context, title, from string) (bool, error) {
	if from == "" {
		from = emp.dir.today()
	}
	return emp.record(ctx, tableTitles,
		map[string]any{"emp_no": emp.EmpNo(), "title": title, "from_date": from},
		map[string]any{"to_date": OpenEnded})
}

// Appoint makes the employee manager of deptNo from the given date, today
// when empty. It returns false when deptNo does not exist.
func (emp *Employee) Appoint(ctx context.Context, deptNo, from string) (bool, error) {
	if !emp.HasRelatedEntity(tableDeptManager) {
		return false, nil
	}
	found, err := emp.ValueExistsIn(ctx, tableDepartments, "dept_no", deptNo)
	if err != nil || !found {
		return false, err
	}
	if from == "" {
		from = emp.dir.today()
	}
	return emp.record(ctx, tableDeptManager,
		map[string]any{"emp_no": emp.EmpNo(), "dept_no": deptNo},
		map[string]any{"from_date": from, "to_date": OpenEnded})
}

// record inserts a row of a related table unless a row with key already
// exists. The inserted row becomes the employee's latest row of name.
func (emp *Employee) record(ctx context.Context, name string, key, rest map[string]any) (bool, error) {
	latest, ok := emp.related[name]
	if !ok {
		return false, nil
	}
	if emp.EmpNo() == 0 {
		return false, errs.Newf(errs.ErrKindInvalidInput, "employee has no emp_no; cannot add %s row", name)
	}

	exists, err := latest.PKValueExists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	row := entity.New(latest.Table)
	if err := row.SetProperties(key); err != nil {
		return false, err
	}
	if err := row.SetProperties(rest); err != nil {
		return false, err
	}
	ok, err = row.Insert(ctx)
	if err != nil || !ok {
		return false, err
	}
	emp.related[name] = row
	return true, nil
}

// closePeriod ends the open period of the latest row of name on the given
// date. Rows that already ended are left alone.
func (emp *Employee) closePeriod(ctx context.Context, name, on string) error {
	latest, ok := emp.related[name]
	if !ok || latest.State() != entity.Filled {
		return nil
	}
	if to, _ := latest.Text("to_date"); to != OpenEnded {
		return nil
	}
	if err := latest.UpdateProperty("to_date", on); err != nil {
		return err
	}
	_, err := latest.Update(ctx)
	return err
}

// Summary returns the employee's columns plus title, department, salary
// and manager_of (the name of the managed department, if any).
func (emp *Employee) Summary(ctx context.Context) (table.Row, error) {
	out := emp.Properties()
	out["title"] = nil
	out["department"] = nil
	out["salary"] = nil
	out["manager_of"] = nil

	if t := emp.related[tableTitles]; t != nil {
		out["title"], _ = t.Property("title")
	}
	if s := emp.related[tableSalaries]; s != nil {
		out["salary"], _ = s.Property("salary")
	}
	if de := emp.related[tableDeptEmp]; de != nil {
		if deptNo, ok := de.Text("dept_no"); ok {
			name, err := emp.dir.departmentName(ctx, deptNo)
			if err != nil {
				return nil, err
			}
			out["department"] = name
		}
	}
	if dm := emp.related[tableDeptManager]; dm != nil {
		if deptNo, ok := dm.Text("dept_no"); ok {
			name, err := emp.dir.departmentName(ctx, deptNo)
			if err != nil {
				return nil, err
			}
			out["manager_of"] = name
		}
	}
	return out, nil
}

// failed wraps err, or reports a failed write when err is nil.
func failed(err error, format string, args ...any) error {
	e := errs.Newf(errs.ErrKindInvalidInput, format, args...)
	if err != nil {
		return errs.Wrap(errs.KindOf(err), e.Message, err)
	}
	return e
}
