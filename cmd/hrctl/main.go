// Command hrctl inspects and edits the employees database through the
// schema-driven table layer, serves it over HTTP and exports table
// snapshots to object storage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dominicus75/testtask/internal/config"
	"github.com/dominicus75/testtask/internal/database/mysql"
	"github.com/dominicus75/testtask/internal/filestore/minio"
	"github.com/dominicus75/testtask/internal/hr"
	"github.com/dominicus75/testtask/internal/logger"
	"github.com/dominicus75/testtask/internal/schema"
	"github.com/dominicus75/testtask/internal/snapshot"
)

// CLI defines the command-line interface.
var CLI struct {
	Config  string `name:"config" short:"c" env:"HRCTL_CONFIG" default:"hrctl.yaml" type:"path" help:"Config file"`
	Verbose bool   `name:"verbose" short:"v" help:"Log executed statements"`

	Tables    TablesCmd    `cmd:"" help:"List the tables of the database"`
	Describe  DescribeCmd  `cmd:"" help:"Show the introspected schema of a table"`
	Employee  EmployeeCmd  `cmd:"" help:"Print an employee summary"`
	Hire      HireCmd      `cmd:"" help:"Create an employee from a JSON document"`
	Salary    SalaryCmd    `cmd:"" help:"Give an employee a new salary"`
	Dept      DeptCmd      `cmd:"" name:"department" help:"Show or change a department"`
	Serve     ServeCmd     `cmd:"" help:"Serve the HTTP API"`
	Export    ExportCmd    `cmd:"" help:"Export a table snapshot to object storage"`
	Snapshots SnapshotsCmd `cmd:"" help:"List the snapshots of a table"`
	Conf      ConfCmd      `cmd:"" name:"config" help:"Read or change the config file"`
}

// app carries what commands share. Connections are opened lazily so that
// config commands work without a database.
type app struct {
	ctx context.Context
	cfg *config.Config
	log *logger.Logger
	out io.Writer

	conn  *mysql.Conn
	reg   *schema.Registry
	store *minio.Driver
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("hrctl"),
		kong.Description("Employees database toolkit"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	kctx.FatalIfErrorf(err)

	lc := cfg.Logger()
	if CLI.Verbose {
		lc.Level = "debug"
	}
	log := logger.New(lc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{ctx: ctx, cfg: cfg, log: log, out: os.Stdout}

	err = kctx.Run(a)
	a.close()
	stop()
	kctx.FatalIfErrorf(err)
}

// registry opens the database connection on first use.
func (a *app) registry() (*schema.Registry, error) {
	if a.reg != nil {
		return a.reg, nil
	}
	dbCfg, err := a.cfg.Database()
	if err != nil {
		return nil, err
	}
	conn, err := mysql.Open(a.ctx, dbCfg, a.log)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	a.reg = schema.NewRegistry(conn, a.log)
	return a.reg, nil
}

func (a *app) directory() (*hr.Directory, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	return hr.NewDirectory(reg, a.log), nil
}

func (a *app) exporter() (*snapshot.Exporter, error) {
	fsCfg, err := a.cfg.FileStore()
	if err != nil {
		return nil, err
	}
	store, err := minio.New(a.ctx, fsCfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	return snapshot.New(store, fsCfg, a.log)
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
