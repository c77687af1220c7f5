package main

import (
	"encoding/json"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/hr"
	"github.com/dominicus75/testtask/internal/server"
	"github.com/dominicus75/testtask/internal/table"
)

// TablesCmd lists the tables seen at connect time.
type TablesCmd struct{}

func (c *TablesCmd) Run(a *app) error {
	if _, err := a.registry(); err != nil {
		return err
	}
	for _, name := range a.conn.Tables() {
		a.printf("%s\n", name)
	}
	return nil
}

// DescribeCmd prints the columns, key and referers of a table.
type DescribeCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *DescribeCmd) Run(a *app) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	tbl, err := table.New(a.ctx, reg, c.Table)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	a.printf("table %s\n\n", tbl.Name())
	tw.Write([]byte("COLUMN\tTYPE\tDECLARED\tNULL\tKEY\n"))
	for _, col := range tbl.Columns() {
		key := ""
		if tbl.IsPrimaryAndAutoIncrement(col.Name) {
			key = "PRI auto_increment"
		} else if isKey(tbl.PrimaryKeys(), col.Name) {
			key = "PRI"
		}
		null := "NO"
		if col.Nullable {
			null = "YES"
		}
		tw.Write([]byte(strings.Join([]string{col.Name, col.Type.String(), col.DeclaredType, null, key}, "\t") + "\n"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rels := tbl.Relations(); len(rels) > 0 {
		a.printf("\nreferenced by\n")
		for _, r := range rels {
			a.printf("  %s.%s -> %s\n", r.RefererTable, r.RefererColumn, r.ReferencedColumn)
		}
	}
	return nil
}

func isKey(keys []string, name string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}

// EmployeeCmd prints one employee with title, department and salary.
type EmployeeCmd struct {
	EmpNo int64 `arg:"" help:"Employee number"`
}

func (c *EmployeeCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	row, err := dir.EmployeeSummary(a.ctx, c.EmpNo)
	if err != nil {
		return err
	}
	return a.printJSON(row)
}

// HireCmd creates an employee from a JSON document such as
//
//	{"employee": {"first_name": "Géza", ...}, "department": "d005", "salary": 50000}
type HireCmd struct {
	File string `arg:"" optional:"" default:"-" help:"Hire document, - for stdin"`
}

func (c *HireCmd) Run(a *app) error {
	in := os.Stdin
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var h hr.Hire
	if err := json.NewDecoder(in).Decode(&h); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid hire document", err)
	}

	dir, err := a.directory()
	if err != nil {
		return err
	}
	empNo, err := dir.Hire(a.ctx, h)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]int64{"emp_no": empNo})
}

// SalaryCmd closes the open salary period and starts a new one.
type SalaryCmd struct {
	EmpNo  int64  `arg:"" help:"Employee number"`
	Salary int64  `arg:"" help:"New yearly salary"`
	From   string `name:"from" help:"First day of the new salary (YYYY-MM-DD), today by default"`
}

func (c *SalaryCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	return dir.SetSalary(a.ctx, c.EmpNo, c.Salary, c.From)
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	Addr string `name:"addr" help:"Listen address, http.addr from the config by default"`
}

func (c *ServeCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = a.cfg.HTTPAddr()
	}
	return server.New(dir, a.log).ListenAndServe(a.ctx, addr)
}

// ExportCmd writes every row of a table into the snapshot bucket.
type ExportCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *ExportCmd) Run(a *app) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	tbl, err := table.New(a.ctx, reg, c.Table)
	if err != nil {
		return err
	}
	exp, err := a.exporter()
	if err != nil {
		return err
	}
	res, err := exp.Export(a.ctx, tbl)
	if err != nil {
		return err
	}
	a.printf("%d rows -> %s/%s\n", res.Rows, res.Bucket, res.Key)
	if res.URL != "" {
		a.printf("%s\n", res.URL)
	}
	return nil
}

// SnapshotsCmd lists the stored snapshots of a table.
type SnapshotsCmd struct {
	Table string `arg:"" help:"Table name"`
	Show  bool   `name:"show" help:"Print the newest snapshot instead of the list"`
	Limit int    `name:"limit" short:"n" help:"List at most this many snapshots"`
}

func (c *SnapshotsCmd) Run(a *app) error {
	if _, err := a.registry(); err != nil {
		return err
	}
	exp, err := a.exporter()
	if err != nil {
		return err
	}
	db := a.conn.Name()

	if c.Show {
		latest, err := exp.Latest(a.ctx, db, c.Table)
		if err != nil {
			return err
		}
		doc, err := exp.Read(a.ctx, latest.Key)
		if err != nil {
			return err
		}
		return a.printJSON(doc)
	}

	objs, err := exp.List(a.ctx, db, c.Table, c.Limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	tw.Write([]byte("KEY\tSIZE\tMODIFIED\n"))
	for _, o := range objs {
		tw.Write([]byte(strings.Join([]string{o.Key, humanize.Bytes(uint64(o.Size)), humanize.Time(o.LastModified)}, "\t") + "\n"))
	}
	return tw.Flush()
}

// ConfCmd reads and edits the config file.
type ConfCmd struct {
	Get   ConfGetCmd   `cmd:"" help:"Print a value"`
	Set   ConfSetCmd   `cmd:"" help:"Set a value and save the file"`
	Unset ConfUnsetCmd `cmd:"" help:"Remove a value and save the file"`
}

type ConfGetCmd struct {
	Key string `arg:"" help:"Dotted key, e.g. log.level"`
}

func (c *ConfGetCmd) Run(a *app) error {
	v, ok := a.cfg.Get(c.Key)
	if !ok {
		return errs.Newf(errs.ErrKindNotFound, "%s is not set", c.Key)
	}
	return a.printJSON(v)
}

type ConfSetCmd struct {
	Key   string `arg:"" help:"Dotted key"`
	Value string `arg:"" help:"New value"`
}

func (c *ConfSetCmd) Run(a *app) error {
	if err := a.cfg.Set(c.Key, c.Value); err != nil {
		return err
	}
	return a.cfg.Save()
}

type ConfUnsetCmd struct {
	Key string `arg:"" help:"Dotted key"`
}

func (c *ConfUnsetCmd) Run(a *app) error {
	if !a.cfg.Delete(c.Key) {
		return errs.Newf(errs.ErrKindNotFound, "%s is not set", c.Key)
	}
	return a.cfg.Save()
}
