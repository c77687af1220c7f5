package mysql

import (
	gomysql "github.com/go-sql-driver/mysql"

	"github.com/dominicus75/testtask/internal/database"
)

const defaultPort = 3306

// buildDSN renders cfg as a go-sql-driver DSN. Options travel as
// connection parameters; charset defaults to utf8mb4.
func buildDSN(cfg *database.Config) string {
	mc := gomysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.DBName = cfg.Database
	mc.Timeout = cfg.ConnectTimeout

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	addr := *cfg
	addr.Port = port
	mc.Addr = addr.Addr()

	params := database.DefaultOptions()
	for k, v := range cfg.Options {
		params[k] = v
	}
	mc.Params = params

	return mc.FormatDSN()
}
